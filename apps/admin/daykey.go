package main

import (
	"fmt"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

var nowFunc = time.Now // mockable

func (cli *commandLine) dayKey(date string) error {
	d := nowFunc().In(cli.loc)
	if date != "" {
		var err error
		if d, err = core.ParseDate(date, cli.loc); err != nil {
			return err
		}
	}
	key := calendar.DayKeyOf(d)
	_, _ = fmt.Fprintf(cli.out, "%s %d %s\n", d.Format(core.DateLayout), key, key)
	return nil
}
