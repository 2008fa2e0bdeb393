// Package form declares the submitted forms and their validation rules.
//
// Rules are struct tags understood by go-playground/validator:
//
//	required         → the field must be present and non-empty
//	min=5            → at least 5 characters
//	eqfield=Password → must equal the Password field
//
// Failures come back as Errors keyed by the HTML input name, ready to be shown
// next to the right input when the form is re-rendered. Handlers add their own
// domain errors ("Username already taken!!") to the same map.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps an input name to its messages, in the order they were added.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message for field, or "".
// Templates use it as {{.Errors.Get "user_id"}}.
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Any reports whether there is at least one message.
func (e Errors) Any() bool {
	return len(e) > 0
}

// RegistrationForm is posted to /register.
type RegistrationForm struct {
	UserID    string `form:"user_id"   validate:"required"`
	Password  string `form:"password"  validate:"required,min=5"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

// LoginForm is posted to /login.
type LoginForm struct {
	UserID   string `form:"user_id"  validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ChangePasswordForm is posted to /change_password.
type ChangePasswordForm struct {
	NewPassword string `form:"new_password" validate:"required,min=5"`
}

// ParseRegistration reads a RegistrationForm from a parsed POST body.
func ParseRegistration(r *http.Request) RegistrationForm {
	return RegistrationForm{
		UserID:    r.PostFormValue("user_id"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
}

// ParseLogin reads a LoginForm from a parsed POST body.
func ParseLogin(r *http.Request) LoginForm {
	return LoginForm{
		UserID:   r.PostFormValue("user_id"),
		Password: r.PostFormValue("password"),
	}
}

// ParseChangePassword reads a ChangePasswordForm from a parsed POST body.
func ParseChangePassword(r *http.Request) ChangePasswordForm {
	return ChangePasswordForm{NewPassword: r.PostFormValue("new_password")}
}

// Validator applies the struct-tag rules. It is safe for concurrent use and
// caches struct metadata, so one instance is shared by every handler.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator that reports fields by their "form" tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Without this, FieldError.Field() would be the Go name "UserID"
	// instead of the input name "user_id" that the template knows.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate checks f and returns nil when every rule passes.
func (v *Validator) Validate(f any) Errors {
	err := v.validate.Struct(f)
	if err == nil {
		return nil
	}

	errs := Errors{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable when f is not a struct: a programming error, but
		// still better shown on the page than swallowed.
		errs.Add("", err.Error())
		return errs
	}

	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

// message turns a rule failure into the text shown under the input.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
