package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Registration(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		form RegistrationForm
		want Errors
	}{
		{
			name: "valid",
			form: RegistrationForm{UserID: "alice", Password: "secret", Password2: "secret"},
			want: nil,
		},
		{
			name: "everything missing",
			form: RegistrationForm{},
			want: Errors{
				"user_id":   {"This field is required."},
				"password":  {"This field is required."},
				"password2": {"This field is required."},
			},
		},
		{
			name: "password too short",
			form: RegistrationForm{UserID: "alice", Password: "abcd", Password2: "abcd"},
			want: Errors{"password": {"Field must be at least 5 characters long."}},
		},
		{
			name: "exactly five characters is enough",
			form: RegistrationForm{UserID: "alice", Password: "abcde", Password2: "abcde"},
			want: nil,
		},
		{
			name: "five multibyte characters is enough",
			form: RegistrationForm{UserID: "alice", Password: "пароль", Password2: "пароль"},
			want: nil,
		},
		{
			name: "confirmation differs",
			form: RegistrationForm{UserID: "alice", Password: "secret", Password2: "secreT"},
			want: Errors{"password2": {"Field must be equal to password."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.form))
		})
	}
}

func TestValidate_Login(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Validate(LoginForm{UserID: "alice", Password: "x"}),
		"login has no length rule")

	errs := v.Validate(LoginForm{UserID: "alice"})
	assert.Equal(t, "This field is required.", errs.Get("password"))
	assert.Empty(t, errs.Get("user_id"))
}

func TestValidate_ChangePassword(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Validate(ChangePasswordForm{NewPassword: "longenough"}))
	assert.Equal(t, "This field is required.", v.Validate(ChangePasswordForm{}).Get("new_password"))
	assert.Equal(t, "Field must be at least 5 characters long.",
		v.Validate(ChangePasswordForm{NewPassword: "abc"}).Get("new_password"))
}

func TestErrors(t *testing.T) {
	errs := Errors{}
	assert.False(t, errs.Any())
	assert.Equal(t, "", errs.Get("user_id"))

	errs.Add("user_id", "Username already taken!!")
	errs.Add("user_id", "second")

	assert.True(t, errs.Any())
	assert.Equal(t, "Username already taken!!", errs.Get("user_id"))
	assert.Len(t, errs["user_id"], 2)
}

func TestParseRegistration(t *testing.T) {
	body := url.Values{
		"user_id":   {"alice"},
		"password":  {"secret"},
		"password2": {"secret2"},
	}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got := ParseRegistration(req)

	assert.Equal(t, RegistrationForm{UserID: "alice", Password: "secret", Password2: "secret2"}, got)
}
