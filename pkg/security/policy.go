package security

import (
	"fmt"
	"strings"
)

// Password policy constants. Lengths are inclusive and counted in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 32

	// SpecialCharacters is the canonical special-character set. Punctuation
	// outside this set (for example '.' or '?') is an invalid character.
	SpecialCharacters = "!@#$%^&*"
)

// ViolationKind identifies the policy rule a candidate failed.
type ViolationKind string

const (
	ViolationEmpty            ViolationKind = "empty"
	ViolationInvalidCharacter ViolationKind = "invalid_character"
	ViolationTooShort         ViolationKind = "too_short"
	ViolationTooLong          ViolationKind = "too_long"
	ViolationMissingUppercase ViolationKind = "missing_uppercase"
	ViolationMissingLowercase ViolationKind = "missing_lowercase"
	ViolationMissingDigit     ViolationKind = "missing_digit"
	ViolationMissingSpecial   ViolationKind = "missing_special"
)

// Violation describes a single unmet rule. Position is set only for
// invalid characters and holds the zero-based character index.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Message  string        `json:"message"`
	Position *int          `json:"position,omitempty"`
}

// ValidationResult is the outcome of checking one candidate.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Messages returns one display string per violation, in rule order.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		msgs = append(msgs, v.Message)
	}
	return msgs
}

// Has reports whether the result carries a violation of the given kind.
func (r ValidationResult) Has(kind ViolationKind) bool {
	for _, v := range r.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// Err returns nil for a valid result and a *PolicyError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &PolicyError{Violations: r.Violations}
}

// PolicyError is returned when a candidate does not satisfy the policy.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "password policy violated: " + strings.Join(msgs, " ")
}

type charClass int

const (
	classInvalid charClass = iota
	classUpper
	classLower
	classDigit
	classSpecial
)

func classify(r rune) charClass {
	switch {
	case r >= 'A' && r <= 'Z':
		return classUpper
	case r >= 'a' && r <= 'z':
		return classLower
	case r >= '0' && r <= '9':
		return classDigit
	case strings.ContainsRune(SpecialCharacters, r):
		return classSpecial
	default:
		return classInvalid
	}
}

var (
	msgEmpty            = "Password is empty."
	msgTooShort         = fmt.Sprintf("At least %d characters required.", MinPasswordLength)
	msgTooLong          = fmt.Sprintf("At most %d characters allowed.", MaxPasswordLength)
	msgMissingUppercase = "At least one uppercase letter required."
	msgMissingLowercase = "At least one lowercase letter required."
	msgMissingDigit     = "At least one digit required."
	msgMissingSpecial   = fmt.Sprintf("At least one special character (%s) required.", SpecialCharacters)
)

// ValidatePassword checks candidate against the fixed password policy and
// returns every unmet rule. An empty candidate or an unrecognized character
// yields that single violation and nothing else.
func ValidatePassword(candidate string) ValidationResult {
	if candidate == "" {
		return invalid(Violation{Kind: ViolationEmpty, Message: msgEmpty})
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	length := 0
	for _, r := range candidate {
		switch classify(r) {
		case classUpper:
			hasUpper = true
		case classLower:
			hasLower = true
		case classDigit:
			hasDigit = true
		case classSpecial:
			hasSpecial = true
		default:
			pos := length
			return invalid(Violation{
				Kind:     ViolationInvalidCharacter,
				Message:  fmt.Sprintf("Invalid character at position %d.", pos),
				Position: &pos,
			})
		}
		length++
	}

	var violations []Violation
	if length < MinPasswordLength {
		violations = append(violations, Violation{Kind: ViolationTooShort, Message: msgTooShort})
	} else if length > MaxPasswordLength {
		violations = append(violations, Violation{Kind: ViolationTooLong, Message: msgTooLong})
	}
	if !hasUpper {
		violations = append(violations, Violation{Kind: ViolationMissingUppercase, Message: msgMissingUppercase})
	}
	if !hasLower {
		violations = append(violations, Violation{Kind: ViolationMissingLowercase, Message: msgMissingLowercase})
	}
	if !hasDigit {
		violations = append(violations, Violation{Kind: ViolationMissingDigit, Message: msgMissingDigit})
	}
	if !hasSpecial {
		violations = append(violations, Violation{Kind: ViolationMissingSpecial, Message: msgMissingSpecial})
	}

	if len(violations) == 0 {
		return ValidationResult{Valid: true, Violations: []Violation{}}
	}
	return ValidationResult{Violations: violations}
}

func invalid(v Violation) ValidationResult {
	return ValidationResult{Violations: []Violation{v}}
}
