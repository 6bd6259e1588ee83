package password

import (
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

// PolicyViolationMessage is the AppError message for a rejected password.
const PolicyViolationMessage = "password does not meet policy"

// Service runs candidates through the credential policy and records the
// outcome. A nil metrics is allowed.
type Service struct {
	metrics *metrics.Metrics
}

func NewService(m *metrics.Metrics) *Service {
	return &Service{metrics: m}
}

// Validate returns the full result for display, e.g. live feedback.
func (s *Service) Validate(candidate string) security.ValidationResult {
	result := security.ValidatePassword(candidate)
	if s.metrics != nil {
		kinds := make([]string, 0, len(result.Violations))
		for _, v := range result.Violations {
			kinds = append(kinds, string(v.Kind))
		}
		s.metrics.ObservePasswordCheck(result.Valid, kinds)
	}
	return result
}

// Enforce returns a Validation AppError listing the violations, or nil.
// Callers must not persist a credential when it returns an error.
func (s *Service) Enforce(candidate string) error {
	result := s.Validate(candidate)
	if err := result.Err(); err != nil {
		return errors.Validation(PolicyViolationMessage, result.Violations, err)
	}
	return nil
}

// Policy describes the enforced rules to clients
func (s *Service) Policy() model.PasswordPolicy {
	return model.PasswordPolicy{
		MinLength:           security.MinPasswordLength,
		MaxLength:           security.MaxPasswordLength,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireNumbers:      true,
		RequireSpecialChars: true,
		AllowedSpecialChars: security.SpecialCharacters,
	}
}
