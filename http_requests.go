package account

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var usernameRule = validation.Match(regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)).
	Error("must be 3 to 32 letters, digits, dots, dashes or underscores")

func passwordRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(6, 64)}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	Photo           string `json:"photo"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateOptionalStringEquals(r.Password))),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Username, usernameRule),
		validation.Field(&r.Photo, validation.Length(0, 1024), is.URL),
	)
}

// Message maps the payload to the lifecycle command
func (r RegisterRequest) Message() RegisterUserMessage {
	return RegisterUserMessage{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Username:  r.Username,
		Photo:     r.Photo,
	}
}

// EmailRequest carries a single email, used by resend and forgot password
type EmailRequest struct {
	Email string `json:"email"`
}

func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest holds the new password
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateOptionalStringEquals(r.Password))),
	)
}

// ValidateStringEquals checks the field equals str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidateOptionalStringEquals is ValidateStringEquals that accepts an
// empty value
func ValidateOptionalStringEquals(str string) validation.RuleFunc {
	equals := ValidateStringEquals(str)
	return func(value any) error {
		if s, _ := value.(string); s == "" {
			return nil
		}
		return equals(value)
	}
}

// FormatValidationErrorToMap flattens ozzo field errors
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}
	if err != nil {
		out["payload"] = err.Error()
	}
	return out
}
