package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Defaults of the interview product.
const (
	DefaultFixedQuestions    = 14
	DefaultFollowUpQuestions = 2
	DefaultSilenceTimeout    = 90 * time.Second
	DefaultWarningLead       = 10 * time.Second
	DefaultGracePeriod       = 2 * time.Second
)

// DefaultCompletionPhrases are the wrap-up sentences the interviewer prompt
// asks the model to speak before emitting the profile block. Matching is
// case-insensitive substring matching.
var DefaultCompletionPhrases = []string{
	"abbiamo finito",
	"sto creando il tuo digital twin",
	"sto creando il tuo twin",
	"sto generando il tuo profilo",
	"creando il tuo digital twin",
}

// Config holds the session policy.
type Config struct {
	// FixedQuestions is the number of scripted questions.
	FixedQuestions int `json:"fixed_questions" yaml:"fixed_questions"`

	// FollowUpQuestions is the deepening budget after the scripted ones.
	FollowUpQuestions int `json:"follow_up_questions" yaml:"follow_up_questions"`

	// MaxQuestions caps assistant turns. Zero means FixedQuestions +
	// FollowUpQuestions.
	MaxQuestions int `json:"max_questions" yaml:"max_questions"`

	// SilenceTimeout ends the session when nothing is said for this long.
	SilenceTimeout time.Duration `json:"silence_timeout" yaml:"silence_timeout"`

	// WarningLead is how long before the timeout the countdown starts.
	WarningLead time.Duration `json:"warning_lead" yaml:"warning_lead"`

	// GracePeriod is how long to wait for the profile block after a
	// completion phrase.
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`

	// CompletionPhrases trigger the grace period. Nil uses
	// DefaultCompletionPhrases; an empty slice disables the fallback.
	CompletionPhrases []string `json:"completion_phrases" yaml:"completion_phrases"`
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{
		FixedQuestions:    DefaultFixedQuestions,
		FollowUpQuestions: DefaultFollowUpQuestions,
		MaxQuestions:      DefaultFixedQuestions + DefaultFollowUpQuestions,
		SilenceTimeout:    DefaultSilenceTimeout,
		WarningLead:       DefaultWarningLead,
		GracePeriod:       DefaultGracePeriod,
		CompletionPhrases: DefaultCompletionPhrases,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.FixedQuestions == 0 {
		c.FixedQuestions = d.FixedQuestions
	}
	if c.FollowUpQuestions == 0 {
		c.FollowUpQuestions = d.FollowUpQuestions
	}
	if c.MaxQuestions == 0 {
		c.MaxQuestions = c.FixedQuestions + c.FollowUpQuestions
	}
	if c.SilenceTimeout == 0 {
		c.SilenceTimeout = d.SilenceTimeout
	}
	if c.WarningLead == 0 {
		c.WarningLead = d.WarningLead
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.CompletionPhrases == nil {
		c.CompletionPhrases = d.CompletionPhrases
	}
	return c
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.FixedQuestions < 1 {
		errs = append(errs, fmt.Errorf("fixed_questions must be positive, got %d", c.FixedQuestions))
	}
	if c.FollowUpQuestions < 0 {
		errs = append(errs, fmt.Errorf("follow_up_questions must not be negative, got %d", c.FollowUpQuestions))
	}
	if c.MaxQuestions < c.FixedQuestions {
		errs = append(errs, fmt.Errorf("max_questions %d is below fixed_questions %d", c.MaxQuestions, c.FixedQuestions))
	}
	if c.SilenceTimeout <= 0 {
		errs = append(errs, errors.New("silence_timeout must be positive"))
	}
	if c.WarningLead < 0 || c.WarningLead >= c.SilenceTimeout {
		errs = append(errs, fmt.Errorf("warning_lead %v must be within silence_timeout %v", c.WarningLead, c.SilenceTimeout))
	}
	if c.GracePeriod <= 0 {
		errs = append(errs, errors.New("grace_period must be positive"))
	}
	for _, p := range c.CompletionPhrases {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("completion_phrases must not contain blank entries"))
			break
		}
	}
	return errors.Join(errs...)
}

// Budget returns the question budget.
func (c Config) Budget() Budget {
	return Budget{Fixed: c.FixedQuestions, FollowUp: c.FollowUpQuestions, Max: c.MaxQuestions}
}
