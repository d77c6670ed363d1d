// Package validator wraps go-playground/validator with JSON field names,
// English/Chinese messages and the portal's domain rules (course codes,
// ISBNs, academic years, one-time codes, grades).
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Supported message languages.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator validates request payloads. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
	trans    map[string]ut.Translator
	mu       sync.RWMutex
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the shared validator, creating it on first use.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// New creates a validator with all portal rules and translations registered.
func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		trans:    make(map[string]ut.Translator),
	}

	// Report fields by their JSON name so errors line up with the wire format.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	v.uni = ut.New(enLocale, enLocale, zh.New())

	enTrans, _ := v.uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	zhTrans, _ := v.uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangZH] = zhTrans

	v.registerRules()
	v.registerTranslations()
	return v
}

// Validate checks s and returns *ValidationErrors in English, or nil.
func (v *Validator) Validate(s interface{}) error {
	if errs := v.ValidateWithLang(s, LangEN); errs != nil {
		return errs
	}
	return nil
}

// ValidateWithLang checks s and returns translated errors, or nil.
func (v *Validator) ValidateWithLang(s interface{}, lang string) *ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("", "invalid", err.Error())
	}
	return v.translateErrors(verrs, v.translator(lang))
}

// Var validates a single value against tag.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) translator(lang string) ut.Translator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if trans, ok := v.trans[lang]; ok {
		return trans
	}
	return v.trans[LangEN]
}

// Engine exposes the underlying validator, e.g. for gin's binding.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

func (v *Validator) translateErrors(errs validator.ValidationErrors, trans ut.Translator) *ValidationErrors {
	result := &ValidationErrors{Errors: make([]FieldError, 0, len(errs))}
	for _, err := range errs {
		result.Errors = append(result.Errors, FieldError{
			Field:   fieldPath(err),
			Tag:     err.Tag(),
			Param:   err.Param(),
			Message: err.Translate(trans),
		})
	}
	return result
}

// fieldPath turns "Credentials.email" into "email" and keeps nested paths
// such as "records[0].status" relative to the root struct.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

// Struct validates s with the global validator.
func Struct(s interface{}) error {
	return Global().Validate(s)
}

// StructWithLang validates s with the global validator in lang.
func StructWithLang(s interface{}, lang string) *ValidationErrors {
	return Global().ValidateWithLang(s, lang)
}
