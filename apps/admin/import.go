package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
)

type (
	// timetableFile is the YAML document read by the import command.
	// Entries refer to rooms by name and to teachers by email.
	timetableFile struct {
		Rooms   []roomDoc  `yaml:"rooms"`
		Staff   []staffDoc `yaml:"staff"`
		Entries []entryDoc `yaml:"entries"`
	}

	roomDoc struct {
		Name     string `yaml:"name"`
		Capacity int    `yaml:"capacity"`
	}

	staffDoc struct {
		Name  string   `yaml:"name"`
		Email string   `yaml:"email"`
		Phone string   `yaml:"phone"`
		Roles []string `yaml:"roles"`
	}

	entryDoc struct {
		Subject    string `yaml:"subject"`
		ClassGroup string `yaml:"group"`
		Teacher    string `yaml:"teacher"`
		Room       string `yaml:"room"`
		Day        string `yaml:"day"` // 2..8 or a weekday name
		Start      string `yaml:"start"`
		End        string `yaml:"end"`
		Color      string `yaml:"color"`
	}

	importStats struct {
		rooms, staff, entries int
	}
)

func (cli *commandLine) importFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening timetable file")
	}
	defer f.Close()

	var doc timetableFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&doc); err != nil {
		return errors.Wrap(err, "decoding timetable file")
	}

	stats, err := cli.importTimetable(context.Background(), doc)
	_, _ = fmt.Fprintf(cli.out, "imported %d rooms, %d staff members, %d entries\n", stats.rooms, stats.staff, stats.entries)
	return err
}

// importTimetable creates what does not exist yet: rooms are matched by name, staff by email.
// It stops at the first invalid item.
func (cli *commandLine) importTimetable(ctx context.Context, doc timetableFile) (importStats, error) {
	var stats importStats

	rooms, err := cli.scheduleSvc.QueryRooms(ctx, schedule.RoomFilter{})
	if err != nil {
		return stats, errors.Wrap(err, "querying rooms")
	}
	roomIDs := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomIDs[strings.ToLower(r.Name)] = r.ID
	}

	for i, rd := range doc.Rooms {
		if _, ok := roomIDs[strings.ToLower(core.CleanString(rd.Name))]; ok {
			continue
		}
		nr := schedule.NewRoom{Name: rd.Name, Capacity: rd.Capacity}
		if err = nr.Validate(cli.validate); err != nil {
			return stats, errors.Wrapf(err, "rooms[%d]", i)
		}
		room, err := cli.scheduleSvc.CreateRoom(ctx, nr)
		if err != nil {
			return stats, errors.Wrapf(err, "rooms[%d]", i)
		}
		roomIDs[strings.ToLower(room.Name)] = room.ID
		stats.rooms++
	}

	for i, sd := range doc.Staff {
		if _, err = cli.staffSvc.GetByEmail(ctx, sd.Email); err == nil {
			continue
		} else if !core.IsNotFound(err) {
			return stats, errors.Wrapf(err, "staff[%d]", i)
		}
		ns := staff.NewStaff{Name: sd.Name, Email: sd.Email, Phone: sd.Phone, Roles: sd.Roles}
		if err = ns.Validate(cli.validate, cli.staffSvc); err != nil {
			return stats, errors.Wrapf(err, "staff[%d]", i)
		}
		if _, err = cli.staffSvc.Create(ctx, ns); err != nil {
			return stats, errors.Wrapf(err, "staff[%d]", i)
		}
		stats.staff++
	}

	for i, ed := range doc.Entries {
		ne, err := cli.newEntry(ctx, ed, roomIDs)
		if err != nil {
			return stats, errors.Wrapf(err, "entries[%d]", i)
		}
		if err = ne.Validate(cli.validate); err != nil {
			return stats, errors.Wrapf(err, "entries[%d]", i)
		}
		if _, err = cli.scheduleSvc.CreateEntry(ctx, ne); err != nil {
			return stats, errors.Wrapf(err, "entries[%d]", i)
		}
		stats.entries++
	}
	return stats, nil
}

func (cli *commandLine) newEntry(ctx context.Context, ed entryDoc, roomIDs map[string]string) (schedule.NewEntry, error) {
	ne := schedule.NewEntry{
		Subject:    ed.Subject,
		ClassGroup: ed.ClassGroup,
		StartTime:  ed.Start,
		EndTime:    ed.End,
		Color:      ed.Color,
	}

	day, err := calendar.ParseDayKey(ed.Day)
	if err != nil {
		return ne, errors.Wrap(err, "day "+strconv.Quote(ed.Day))
	}
	ne.Day = int(day)

	if name := core.CleanString(ed.Room); name != "" {
		id, ok := roomIDs[strings.ToLower(name)]
		if !ok {
			return ne, errors.New("unknown room " + strconv.Quote(name))
		}
		ne.RoomID = id
	}
	if email := core.CleanString(ed.Teacher); email != "" {
		teacher, err := cli.staffSvc.GetByEmail(ctx, email)
		if err != nil {
			return ne, errors.Wrap(err, "teacher "+strconv.Quote(email))
		}
		ne.TeacherID = teacher.ID
	}
	return ne, nil
}
