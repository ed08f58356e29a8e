package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

var (
	dayKeyTag  = "daykey"
	dayKeyText = "day must be between 2 (Monday) and 8 (Sunday)"

	afterStartTag  = "after_start"
	afterStartText = "end time must be after start time"

	overrideChangeTag  = "override_change"
	overrideChangeText = "an override must cancel the class or change its time or room"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dayKeyTag, dayKeyValidation)
	core.RegisterCustomTranslation(validate, translator, dayKeyTag, dayKeyText)

	validate.RegisterStructValidation(entryStructValidation, NewEntry{}, UpdateEntry{}, MoveEntry{}, NewOverride{})
	core.RegisterCustomTranslation(validate, translator, afterStartTag, afterStartText)
	core.RegisterCustomTranslation(validate, translator, overrideChangeTag, overrideChangeText)
}

// Custom Validators

func dayKeyValidation(fl validator.FieldLevel) bool {
	return calendar.DayKey(fl.Field().Int()).Valid()
}

// entryStructValidation checks that end times come after start times, and that overrides change something.
func entryStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewEntry:
		validateTimeRange(v.StartTime, v.EndTime, sl)
	case UpdateEntry:
		validateTimeRange(v.StartTime, v.EndTime, sl)
	case MoveEntry:
		if v.EndTime != "" {
			validateTimeRange(v.StartTime, v.EndTime, sl)
		}
	case NewOverride:
		if !v.Cancelled && v.StartTime == "" && v.EndTime == "" && v.RoomID == "" {
			sl.ReportError(v.Cancelled, "cancelled", "Cancelled", overrideChangeTag, "")
			return
		}
		if v.StartTime != "" && v.EndTime != "" {
			validateTimeRange(v.StartTime, v.EndTime, sl)
		}
	}
}

// validateTimeRange reports end_time when both times parse and the range is empty or inverted.
func validateTimeRange(start, end string, sl validator.StructLevel) {
	s, err := calendar.ParseClock(start)
	if err != nil {
		return
	}
	e, err := calendar.ParseClock(end)
	if err != nil {
		return
	}
	if e <= s {
		sl.ReportError(end, "end_time", "EndTime", afterStartTag, "")
	}
}
