package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sqlx.DB
	staffSvc    staff.Service
	scheduleSvc schedule.Service
	validate    *validator.Validate
	loc         *time.Location
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                      - run goose migration commands (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  addstaff -name NAME -email EMAIL [-admin]   - create or update a staff member")
	_, _ = fmt.Fprintln(cli.out, "  import -file TIMETABLE.yaml                 - import rooms, staff & timetable entries")
	_, _ = fmt.Fprintln(cli.out, "  daykey [-date YYYY-MM-DD]                   - print the day key of a date (today by default)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ContinueOnError)
	addStaffCmd.SetOutput(cli.out)
	addStaffName := addStaffCmd.String("name", "", "The staff member's full name.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email; an existing member with this email is updated.")
	addStaffAdmin := addStaffCmd.Bool("admin", false, "Grant the admin role.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importCmd.SetOutput(cli.out)
	importFile := importCmd.String("file", "", "Path to the YAML timetable file.")

	dayKeyCmd := flag.NewFlagSet("daykey", flag.ContinueOnError)
	dayKeyCmd.SetOutput(cli.out)
	dayKeyDate := dayKeyCmd.String("date", "", "The date (YYYY-MM-DD), today by default.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addStaffName == "" || *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffName, *addStaffEmail, *addStaffAdmin)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importFile)
	case "daykey":
		if err := dayKeyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.dayKey(*dayKeyDate)
	default:
		cli.printUsage()
		return errHelp
	}
}
