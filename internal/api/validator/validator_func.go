package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// digits with the separators people type, optionally led by +
	msisdnRegex  = `^\+?[0-9][0-9 ().\-]*$`
	accountRegex = `^[A-Za-z0-9 _\-]+$`
)

const (
	MSISDNTag     = "msisdn"
	AccountRefTag = "account_ref"
)

var (
	msisdnPattern  = regexp.MustCompile(msisdnRegex)
	accountPattern = regexp.MustCompile(accountRegex)
)

var valid = map[string]func(fl validator.FieldLevel) bool{
	MSISDNTag:     ValidateMSISDN,
	AccountRefTag: ValidateAccountReference,
}

func ValidateMSISDN(fl validator.FieldLevel) bool {
	return msisdnPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func ValidateAccountReference(fl validator.FieldLevel) bool {
	return accountPattern.MatchString(fl.Field().String())
}

// jsonFieldName reports validation failures under the JSON name clients send.
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
