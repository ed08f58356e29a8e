package staff

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	phoneTag   = "phone"
	phoneText  = "invalid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,20}$`)

	allRolesSet = makeRoleSet()
)

func makeRoleSet() map[string]bool {
	set := make(map[string]bool, len(AllRoles))
	for _, role := range AllRoles {
		set[role] = true
	}
	return set
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)
}

// Custom Validators

// allRolesValidation checks that provided roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if !allRolesSet[role] {
			return false
		}
	}
	return true
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
