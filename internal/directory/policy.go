package directory

import (
	"context"
	"fmt"
	"unicode"

	"steward/internal/api"
)

// Policy implements api.PasswordPolicy: a minimum length plus a minimum
// number of character classes (lower case, upper case, digits, other).
type Policy struct {
	MinLength  int
	MinClasses int
}

// DefaultPolicy matches what app install scripts historically assumed.
func DefaultPolicy() *Policy {
	return &Policy{MinLength: 8, MinClasses: 2}
}

// AssertStrongEnough fails with a WeakPasswordError explaining the unmet
// rule.
func (p *Policy) AssertStrongEnough(ctx context.Context, password string) error {
	if len(password) < p.MinLength {
		return &api.WeakPasswordError{
			Reason: fmt.Sprintf("it must be at least %d characters long", p.MinLength),
		}
	}

	if classes := characterClasses(password); classes < p.MinClasses {
		return &api.WeakPasswordError{
			Reason: fmt.Sprintf("it must mix at least %d of: lower case, upper case, digits, punctuation", p.MinClasses),
		}
	}
	return nil
}

// characterClasses counts how many of the four character classes appear.
func characterClasses(password string) int {
	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, other} {
		if present {
			classes++
		}
	}
	return classes
}
