// Package validate evaluates declared field rules and collects every violation.
//
// A validated shape lists its rules as data:
//
//	func (p SignInPayload) Rules() []validate.FieldRules {
//		return []validate.FieldRules{
//			validate.Field("username", p.Username, validation.Required, is.Email),
//			validate.Field("password", p.Password, validation.Required, validation.Length(6, 0)),
//		}
//	}
//
// Check runs every rule of every field, so a failure on one field never hides
// a failure on another.
package validate

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// FieldRules binds a field name and its current value to the rules it must satisfy.
type FieldRules struct {
	Name  string
	Value interface{}
	Rules []validation.Rule
}

// Field declares the rules for one field.
func Field(name string, value interface{}, rules ...validation.Rule) FieldRules {
	return FieldRules{Name: name, Value: value, Rules: rules}
}

// Validatable is implemented by every shape accepted by the extraction layer.
type Validatable interface {
	Rules() []FieldRules
}

// Check evaluates all rules of v. It returns nil when v is valid.
func Check(v Validatable) *Errors {
	errs := NewErrors()
	for _, f := range v.Rules() {
		for _, rule := range f.Rules {
			if rule == nil {
				continue
			}
			if err := rule.Validate(f.Value); err != nil {
				errs.Add(f.Name, err.Error())
			}
		}
	}
	if errs.Empty() {
		return nil
	}
	return errs
}
