package validator

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagNotBlank = "notblank" // String must contain a non-whitespace character
)

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagNotBlank, validateNotBlank)

	v.registerTranslation(LangEN, TagNotBlank, "{0} must not be blank")
	v.registerTranslation(LangZH, TagNotBlank, "{0}不能为空白")
}

// validateNotBlank rejects strings made only of whitespace. Emptiness is
// left to 'required'.
func validateNotBlank(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return strings.TrimSpace(value) != ""
}

func (v *Validator) registerTranslation(lang, tag, message string) {
	trans, ok := v.trans[lang]
	if !ok {
		return
	}
	_ = v.validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, message, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}
