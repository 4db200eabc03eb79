package validation

import (
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"

	"delivery-system/pkg/constants"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", isPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("user_role", isUserRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("report_status", isReportStatus); err != nil {
		return err
	}
	return nil
}

// isPhoneNumber - 10-15 цифр, допускается ведущий "+"
func isPhoneNumber(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func isUserRole(fl validator.FieldLevel) bool {
	return slices.Contains(constants.AllRoles, fl.Field().String())
}

func isReportStatus(fl validator.FieldLevel) bool {
	return slices.Contains(constants.ReportStatuses, fl.Field().String())
}
