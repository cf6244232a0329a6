// Package validation gates wizard transitions: every step payload is checked
// field by field and the failures are reported keyed by the form field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{4,20}$`)

// Result is the outcome of validating one step payload.
type Result struct {
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// IsValid reports whether no field failed.
func (r Result) IsValid() bool {
	return len(r.FieldErrors) == 0
}

// Add records a failure for field. The first message recorded for a field wins.
func (r *Result) Add(field, message string) {
	if r.FieldErrors == nil {
		r.FieldErrors = make(map[string]string)
	}

	if _, exists := r.FieldErrors[field]; !exists {
		r.FieldErrors[field] = message
	}
}

// Rule is a step-specific check that struct tags cannot express.
type Rule func(payload models.StepPayload, result *Result)

// New returns a validator configured the way every roster component uses it:
// struct fields are reported by their JSON name and the phone tag is known.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return f.Name
		}

		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// Registry validates step payloads with struct tags plus per-step rules.
type Registry struct {
	validate *validator.Validate
	rules    map[models.StepKey][]Rule
}

// NewRegistry returns a registry preloaded with the default step rules.
func NewRegistry() *Registry {
	r := &Registry{
		validate: New(),
		rules:    make(map[models.StepKey][]Rule),
	}

	r.AddRule(models.StepBaseInfo, birthdayBeforeEmployment)
	r.AddRule(models.StepBaseInfo, birthdayInPast)

	return r
}

// AddRule appends a rule evaluated after the struct tags of step.
func (r *Registry) AddRule(step models.StepKey, rule Rule) {
	r.rules[step] = append(r.rules[step], rule)
}

// Validate checks payload as the data of step. A nil payload is validated as
// an empty form, so every required field is reported.
func (r *Registry) Validate(step models.StepKey, payload models.StepPayload) Result {
	var result Result

	if payload == nil {
		empty, err := models.NewPayload(step)
		if err != nil {
			result.Add("step", err.Error())

			return result
		}

		payload = empty
	}

	if payload.Step() != step {
		result.Add("step", fmt.Sprintf("payload belongs to step %s, not %s", payload.Step(), step))

		return result
	}

	if err := r.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			result.Add("step", err.Error())

			return result
		}

		for _, fe := range validationErrors {
			result.Add(fe.Field(), message(fe))
		}
	}

	for _, rule := range r.rules[step] {
		rule(payload, &result)
	}

	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "numeric":
		return "must contain digits only"
	case "iso4217":
		return "must be a valid ISO 4217 currency code"
	case "iso3166_1_alpha2":
		return "must be a valid two-letter country code"
	case "latitude":
		return "must be a latitude between -90 and 90"
	case "longitude":
		return "must be a longitude between -180 and 180"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}

		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}

		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

func birthdayBeforeEmployment(payload models.StepPayload, result *Result) {
	base, ok := payload.(*models.BaseInfo)
	if !ok {
		return
	}

	birthday, err := time.Parse(models.DateLayout, base.Birthday)
	if err != nil {
		return
	}

	employed, err := time.Parse(models.DateLayout, base.EmploymentDate)
	if err != nil {
		return
	}

	if !birthday.Before(employed) {
		result.Add("employmentDate", "must be after the birthday")
	}
}

func birthdayInPast(payload models.StepPayload, result *Result) {
	base, ok := payload.(*models.BaseInfo)
	if !ok {
		return
	}

	birthday, err := time.Parse(models.DateLayout, base.Birthday)
	if err != nil {
		return
	}

	if birthday.After(time.Now()) {
		result.Add("birthday", "must be in the past")
	}
}
