package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"supplierportal/internal/apperr"
)

// Validator checks field values against the form rules.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the form's custom tags registered.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("legalnature", func(fl validator.FieldLevel) bool {
		return KnownLegalNature(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct checks v against its validate tags. Failures are reported under the
// json names of the offending fields.
func (fv *Validator) Struct(v any) error {
	err := fv.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%v", err)
	}
	failed := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = fe.Tag()
	}
	return &apperr.ValidationError{Fields: failed}
}

// Step checks the fields shown on one step.
func (fv *Validator) Step(values map[string]any, step int) error {
	return fv.check(values, FieldsForStep(step))
}

// Fields checks every scalar field of the form.
func (fv *Validator) Fields(values map[string]any) error {
	return fv.check(values, Fields)
}

// Submission checks everything a submit needs: all fields valid and at least
// one attached document.
func (fv *Validator) Submission(values map[string]any, attachedDocuments int) error {
	if err := fv.Fields(values); err != nil {
		return err
	}
	if attachedDocuments < 1 {
		return &apperr.ValidationError{
			Message: "at least one document must be attached",
			Fields:  map[string]string{"documents": "required"},
		}
	}
	return nil
}

// Email checks the shape of a single address.
func (fv *Validator) Email(address string) error {
	if err := fv.v.Var(address, "required,email"); err != nil {
		return &apperr.ValidationError{Fields: map[string]string{"email": "email"}}
	}
	return nil
}

func (fv *Validator) check(values map[string]any, fields []Field) error {
	failed := map[string]string{}
	for _, f := range fields {
		value, ok := values[f.Name]
		if !ok || value == nil {
			value = ZeroValue(f.Kind)
		}
		if s, isStr := value.(string); isStr {
			value = strings.TrimSpace(s)
		}
		if f.Rule != "" {
			if err := fv.v.Var(value, f.Rule); err != nil {
				failed[f.Name] = firstTag(err)
			}
		}
	}
	// Conflict details are only mandatory once a conflict is declared.
	if declared, _ := values[FieldConflictOfInterest].(bool); declared && containsField(fields, FieldConflictDetails) {
		details, _ := values[FieldConflictDetails].(string)
		if strings.TrimSpace(details) == "" {
			failed[FieldConflictDetails] = "required_with"
		}
	}
	if len(failed) > 0 {
		return &apperr.ValidationError{Fields: failed}
	}
	return nil
}

func firstTag(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return "invalid"
}

func containsField(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
