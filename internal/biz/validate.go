package biz

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	imdbIDPattern = regexp.MustCompile(`^tt\d{7,8}$`)
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError rejects a whole record or query; nothing is persisted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		mustRegister("genre", func(fl validator.FieldLevel) bool {
			return Genre(fl.Field().String()).IsValid()
		})
		mustRegister("mpaa", func(fl validator.FieldLevel) bool {
			return Rating(fl.Field().String()).IsValid()
		})
		mustRegister("imdbid", func(fl validator.FieldLevel) bool {
			return imdbIDPattern.MatchString(fl.Field().String())
		})
		mustRegister("castnames", func(fl validator.FieldLevel) bool {
			cast, ok := fl.Field().Interface().([]CastMember)
			if !ok {
				return false
			}
			return castNamesUnique(cast)
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func castNamesUnique(cast []CastMember) bool {
	seen := make(map[string]struct{}, len(cast))
	for _, member := range cast {
		name := strings.ToLower(member.Name)
		if _, dup := seen[name]; dup {
			return false
		}
		seen[name] = struct{}{}
	}
	return true
}

// ValidateMovie checks a movie against the domain schema.
func ValidateMovie(m *Movie) error {
	if m == nil {
		return &ValidationError{Fields: []FieldError{{Field: "movie", Tag: "required", Message: "movie is required"}}}
	}
	return validateStruct(m)
}

// ValidateSearchQuery checks search filters and pagination bounds.
func ValidateSearchQuery(q *MovieSearchQuery) error {
	if q == nil {
		return &ValidationError{Fields: []FieldError{{Field: "query", Tag: "required", Message: "query is required"}}}
	}
	return validateStruct(q)
}

func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe),
		})
	}
	return out
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"unique":    "%s must not contain duplicates",
	"genre":     "%s must be a supported genre",
	"mpaa":      "%s must be one of G, PG, PG-13, R, NC-17, NR",
	"imdbid":    "%s must look like tt1234567",
	"castnames": "%s member names must be unique",
}

var messageWithParam = map[string]string{
	"gte": "%s must be greater than or equal to %s",
	"lte": "%s must be less than or equal to %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	counted := "items"
	if fe.Kind() == reflect.String {
		counted = "characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must have at least %s %s", field, param, counted)
	case "max":
		return fmt.Sprintf("%s must have at most %s %s", field, param, counted)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
