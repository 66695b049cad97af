package assistant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindRateLimited
	KindProviderUnavailable
	KindParseFailure
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindParseFailure:
		return "parse_failure"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unexpected"
	}
}

var (
	ErrNotImage            = errors.New("only image files are supported")
	ErrEmptyImage          = errors.New("image is required")
	ErrVisionNotConfigured = errors.New("vision provider not configured")
	ErrNoRecipes           = errors.New("response has no recipes list")
)

// ProviderError is a classified failure of one provider attempt
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with an explicit kind
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// StatusError is returned by provider clients for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Classify maps an arbitrary provider error to a kind. Errors that already carry
// a kind keep it. HTTP 429 and quota or rate-limit wording mean rate limited.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnexpected
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Kind != KindUnexpected {
		return perr.Kind
	}

	var serr *StatusError
	if errors.As(err, &serr) && serr.StatusCode == 429 {
		return KindRateLimited
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") {
		return KindRateLimited
	}

	// timeouts, transport failures, auth errors and other non-2xx statuses
	return KindProviderUnavailable
}

// IsRateLimited reports whether err classifies as rate limited
func IsRateLimited(err error) bool {
	return Classify(err) == KindRateLimited
}
