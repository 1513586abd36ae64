package blog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// CreateInput carries a new post. ImagePath, when set, is a temporary file
// the service takes ownership of.
type CreateInput struct {
	Title     string `json:"title" validate:"notblank"`
	Content   string `json:"content" validate:"notblank"`
	ImagePath string `json:"-"`
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title     *string `json:"title" validate:"omitnil,notblank"`
	Content   *string `json:"content" validate:"omitnil,notblank"`
	ImagePath string  `json:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (in CreateInput) Validate() error {
	details, err := fieldErrors(in, "%s is required")
	if err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Message: "Missing required fields: title or content", Details: details}
}

func (in UpdateInput) Validate() error {
	details, err := fieldErrors(in, "%s must be a non-empty string")
	if err != nil {
		return err
	}
	// title is checked before content
	for _, field := range []string{"title", "content"} {
		if msg, ok := details[field]; ok {
			return &ValidationError{Message: capitalise(msg), Details: details}
		}
	}
	return nil
}

func fieldErrors(in any, format string) (map[string]string, error) {
	err := validate.Struct(in)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, &ValidationError{Message: "Invalid input", Err: err}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fmt.Sprintf(format, fe.Field())
	}
	return details, nil
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
