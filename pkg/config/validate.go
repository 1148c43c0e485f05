package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists every config field that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg for values parley cannot start with. QnA credentials
// are checked by the matcher itself when it is constructed.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot validate nil config")
	}

	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}

	if cfg.Brain.ConversationDuration != "" {
		d, err := time.ParseDuration(cfg.Brain.ConversationDuration)
		if err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("brain.conversation_duration %q is not a positive duration", cfg.Brain.ConversationDuration))
		}
	}
	if cfg.NLU.Classifier.Provider == "remote" && cfg.NLU.Classifier.Target == "" {
		problems = append(problems, "nlu.classifier.target is required for the remote classifier")
	}
	if cfg.NLU.QnA.Enabled && cfg.NLU.QnA.Target == "" {
		problems = append(problems, "nlu.qna.target is required when qna is enabled")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ConversationDuration parses the configured conversation validity window.
func (c *Config) ConversationDuration() (time.Duration, error) {
	if c.Brain.ConversationDuration == "" {
		return time.ParseDuration(defaultConversationDuration)
	}
	d, err := time.ParseDuration(c.Brain.ConversationDuration)
	if err != nil {
		return 0, fmt.Errorf("parsing brain.conversation_duration: %w", err)
	}
	return d, nil
}
