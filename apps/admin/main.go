package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	if err = db.PingContext(context.Background()); err != nil {
		logger.Fatal("pinging database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db))
	scheduleRepo := sqlxrepos.NewScheduleRepository(db)
	scheduleSvc := schedule.NewService(
		scheduleRepo,
		schedule.NewSnapshotStore(scheduleRepo, nil),
		staffSvc,
		schedule.Options{
			Geometry: calendar.DefaultGeometry(),
			Location: conf.Calendar.Location(),
			Logger:   logger,
		},
	)

	// start CLI
	cli := commandLine{
		db:          db,
		staffSvc:    staffSvc,
		scheduleSvc: scheduleSvc,
		validate:    validate,
		loc:         conf.Calendar.Location(),
		out:         os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}
