package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("parentdir", hasExistingParentDir); err != nil {
		return nil, nil, fmt.Errorf("failed to register parentdir validation: %w", err)
	}
	if err := validate.RegisterTranslation("parentdir", trans, func(ut ut.Translator) error {
		return ut.Add("parentdir", "{0} must be inside an existing directory", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("parentdir", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register parentdir translation: %w", err)
	}

	return validate, trans, nil
}

// hasExistingParentDir accepts paths whose file may not exist yet, as long as it can be created.
func hasExistingParentDir(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false
	}
	return info.IsDir()
}
