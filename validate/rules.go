package validate

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 256
	maxEmailLength    = 254
)

// Project keys are short lowercase identifiers: alphanumeric with interior
// hyphens, no leading or trailing hyphen, at most 64 characters.
var projectKeyRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,62}[a-z0-9])?$`)

// Rules is the default CredentialValidator implementation. Email syntax is
// delegated to go-playground/validator; project key and password policy are
// local rules.
type Rules struct {
	v *validator.Validate
}

// NewRules returns a Rules with the default policy.
func NewRules() *Rules {
	return &Rules{v: validator.New()}
}

// IsValidEmail reports whether email is a syntactically valid address.
func (r *Rules) IsValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	return r.v.Var(email, "required,email") == nil
}

// IsValidProjectKey reports whether projectKey matches the project key
// grammar. The empty string is valid: it selects the default project.
func (r *Rules) IsValidProjectKey(projectKey string) bool {
	if projectKey == "" {
		return true
	}
	return projectKeyRe.MatchString(projectKey)
}

// IsValidPassword reports whether password satisfies the minimum policy:
// 8 to 256 bytes with at least one letter and one digit.
func (r *Rules) IsValidPassword(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}

	return hasLetter && hasDigit
}
