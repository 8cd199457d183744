// Package validate wraps a process-wide go-playground validator with english
// translations and maps failures onto project errors
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "dfsclient/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// sqlIdent is a bare or schema-qualified SQL identifier
var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Svc holds the validator and its translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Svc
)

// Get returns the validator singleton, building it on first use
func Get() *Svc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// report env-style names (`env:"MASTER_URL"`) when present
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("env")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
			return sqlIdent.MatchString(fl.Field().String())
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerShort(v, trans, "url", "{0} must be an absolute URL")
		registerShort(v, trans, "required_if", "{0} is required when {1}")
		registerShort(v, trans, "sqlident", "{0} must be a table name like db.table")

		vSvc = &Svc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Struct validates s and returns a Validation error carrying the first
// offending field and its translated message
func Struct(s any) error {
	err := Get().Validator.Struct(s)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return perr.Wrap(inv, perr.ErrorCodeInvalidArgument, "validator internal error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, msg), field)
}

// FieldAndMessage returns the first field and translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
