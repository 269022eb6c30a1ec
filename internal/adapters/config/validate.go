package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/zerr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseMode(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("cachestrategy", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCacheStrategy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("sources", func(fl validator.FieldLevel) bool {
		return len(domain.SplitSources(fl.Field().String())) > 0
	})
	return v
}

// validateStruct checks the struct tags of a decoded document. Only the first violation
// is reported.
func validateStruct(path string, doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) || len(violations) == 0 {
		return zerr.With(domain.Because(domain.ErrConfigInvalid, err), "path", path)
	}

	v := violations[0]
	out := zerr.With(domain.Annotate(domain.ErrConfigInvalid, "path", path), "field", v.Namespace())
	out = zerr.With(out, "rule", ruleOf(v))
	if value, ok := v.Value().(string); ok && value != "" {
		out = zerr.With(out, "value", value)
	}
	return out
}

func ruleOf(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "field is required"
	case "min":
		return "must have at least " + v.Param() + " entries"
	case "mode":
		return "expected OneWay, TwoWay, OneTime or OneWayToSource"
	case "cachestrategy":
		return "expected None or Simple"
	case "sources":
		return "must name at least one source"
	case "excluded_with":
		return "cannot be combined with " + v.Param()
	default:
		return "validation failed (" + v.Tag() + ")"
	}
}
