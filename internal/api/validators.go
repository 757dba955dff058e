package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

var (
	// custom validation tags & texts
	eventTypeTag  = "eventtype"
	eventTypeText = "{0} must be one of holiday, festival, exam, meeting, event, school-day, other"

	statusTag  = "attstatus"
	statusText = "{0} must be one of present, absent, late"

	isoDateTag  = "isodate"
	isoDateText = "{0} must be a date in YYYY-MM-DD format"

	bsDateTag  = "bsdate"
	bsDateText = "{0} must be a Bikram Sambat date in YYYY/MM/DD format"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Validator checks request bodies and renders failures as English messages
// keyed by JSON field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator builds a validator with the calendar-specific tags registered.
func NewValidator() *Validator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(eventTypeTag, eventTypeValidation)
	registerTranslation(validate, translator, eventTypeTag, eventTypeText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	registerTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	registerTranslation(validate, translator, isoDateTag, isoDateText)

	_ = validate.RegisterValidation(bsDateTag, bsDateValidation)
	registerTranslation(validate, translator, bsDateTag, bsDateText)

	registerTranslation(validate, translator, requiredTag, requiredText, true)

	return &Validator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates v. It returns nil when v is valid, otherwise the
// translated message for every failing field.
func (v *Validator) Struct(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	// Namespaces start with the struct's type name unless it is anonymous.
	prefix := reflect.Indirect(reflect.ValueOf(s)).Type().Name()
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if prefix != "" {
			key = strings.TrimPrefix(key, prefix+".")
		}
		fields[key] = fe.Translate(v.translator)
	}
	return fields
}

func eventTypeValidation(fl validator.FieldLevel) bool {
	_, err := database.ParseEventType(fl.Field().String())
	return err == nil
}

func statusValidation(fl validator.FieldLevel) bool {
	return database.AttendanceStatus(fl.Field().String()).Valid()
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := database.ParseDate(fl.Field().String())
	return err == nil
}

func bsDateValidation(fl validator.FieldLevel) bool {
	_, err := nepali.Parse(fl.Field().String())
	return err == nil
}
