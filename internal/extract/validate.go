package extract

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pelican-stonks/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct reports the first failing field as a SchemaViolation.
func checkStruct(v any, where string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("has invalid value %v (%s)", fe.Value(), fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("has invalid value %v (%s=%s)", fe.Value(), fe.Tag(), fe.Param())
		}
		if where != "" {
			reason += " in " + where
		}
		return &types.SchemaViolation{Key: fe.Field(), Reason: reason}
	}
	return &types.SchemaViolation{Key: "", Reason: err.Error()}
}
