package botkit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Text formats checked by CheckText.
const (
	FormatEmail  = "email"
	FormatPhone  = "phone"
	FormatNumber = "number"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{5,18}[0-9]$`)
)

// TextRules constrain collected text. Zero values disable a rule.
type TextRules struct {
	MinLength int
	MaxLength int
	Format    string
}

// ValidationError describes the rule a collected text broke.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CheckText applies rules to v. Lengths count characters, not bytes.
func CheckText(v string, rules TextRules) error {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if rules.MinLength > 0 && n < rules.MinLength {
		return &ValidationError{Rule: "minLength", Message: fmt.Sprintf("Please enter at least %d characters.", rules.MinLength)}
	}
	if rules.MaxLength > 0 && n > rules.MaxLength {
		return &ValidationError{Rule: "maxLength", Message: fmt.Sprintf("Please enter at most %d characters.", rules.MaxLength)}
	}
	switch rules.Format {
	case FormatEmail:
		if !emailPattern.MatchString(v) {
			return &ValidationError{Rule: FormatEmail, Message: "Please enter a valid email address."}
		}
	case FormatPhone:
		if !phonePattern.MatchString(v) {
			return &ValidationError{Rule: FormatPhone, Message: "Please enter a valid phone number."}
		}
	case FormatNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64); err != nil {
			return &ValidationError{Rule: FormatNumber, Message: "Please enter a number."}
		}
	}
	return nil
}
