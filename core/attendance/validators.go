package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

var (
	afterCheckInTag  = "after_checkin"
	afterCheckInText = "check-out must be after check-in"

	noClockTag  = "no_clock"
	noClockText = "absent and leave records cannot have check-in or check-out times"

	oneOfTag  = "oneof"
	oneOfText = "must be one of: present, late, absent, leave"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(recordStructValidation, NewRecord{}, UpdateRecord{})
	core.RegisterCustomTranslation(validate, translator, afterCheckInTag, afterCheckInText)
	core.RegisterCustomTranslation(validate, translator, noClockTag, noClockText)
	core.RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
}

// recordStructValidation checks clock times against the status of NewRecord and UpdateRecord structs.
func recordStructValidation(sl validator.StructLevel) {
	switch r := sl.Current().Interface().(type) {
	case NewRecord:
		validateClocks(r.Status, r.CheckIn, r.CheckOut, sl)
	case UpdateRecord:
		validateClocks(r.Status, r.CheckIn, r.CheckOut, sl)
	}
}

func validateClocks(status, checkIn, checkOut string, sl validator.StructLevel) {
	if isAway(status) {
		if checkIn != "" {
			sl.ReportError(checkIn, "check_in", "CheckIn", noClockTag, "")
		}
		if checkOut != "" {
			sl.ReportError(checkOut, "check_out", "CheckOut", noClockTag, "")
		}
		return
	}
	in, err := calendar.ParseClock(checkIn)
	if err != nil {
		return
	}
	out, err := calendar.ParseClock(checkOut)
	if err != nil {
		return
	}
	if out <= in {
		sl.ReportError(checkOut, "check_out", "CheckOut", afterCheckInTag, "")
	}
}
