// Package kernelerr defines the error taxonomy shared by every component of
// the debate kernel. A KernelError built by New or Wrap wraps one of the
// sentinels below so callers can branch on kind with errors.Is instead of
// parsing messages; errors outside these kinds are plain wrapped errors.
package kernelerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the nine error categories the kernel distinguishes.
type Kind string

const (
	InvalidTransition     Kind = "invalid_transition"
	PermissionDenied      Kind = "permission_denied"
	SchemaViolation       Kind = "schema_violation"
	KeyCollision          Kind = "key_collision"
	CitationRuleViolation Kind = "citation_rule_violation"
	ParseFailure          Kind = "parse_failure"
	ProviderTransient     Kind = "provider_transient"
	ProviderPermanent     Kind = "provider_permanent"
	BudgetExhausted       Kind = "budget_exhausted"
)

var (
	ErrInvalidTransition     = errors.New(string(InvalidTransition))
	ErrPermissionDenied      = errors.New(string(PermissionDenied))
	ErrSchemaViolation       = errors.New(string(SchemaViolation))
	ErrKeyCollision          = errors.New(string(KeyCollision))
	ErrCitationRuleViolation = errors.New(string(CitationRuleViolation))
	ErrParseFailure          = errors.New(string(ParseFailure))
	ErrProviderTransient     = errors.New(string(ProviderTransient))
	ErrProviderPermanent     = errors.New(string(ProviderPermanent))
	ErrBudgetExhausted       = errors.New(string(BudgetExhausted))
)

var sentinels = map[Kind]error{
	InvalidTransition:     ErrInvalidTransition,
	PermissionDenied:      ErrPermissionDenied,
	SchemaViolation:       ErrSchemaViolation,
	KeyCollision:          ErrKeyCollision,
	CitationRuleViolation: ErrCitationRuleViolation,
	ParseFailure:          ErrParseFailure,
	ProviderTransient:     ErrProviderTransient,
	ProviderPermanent:     ErrProviderPermanent,
	BudgetExhausted:       ErrBudgetExhausted,
}

// KernelError pairs a Kind with the context that produced it. It wraps the
// kind's sentinel so errors.Is(err, kernelerr.ErrPermissionDenied) works
// regardless of the surrounding message.
type KernelError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *KernelError) Error() string {
	if e.Message == "" {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *KernelError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.sentinel(), e.Err}
	}
	return []error{e.sentinel()}
}

func (e *KernelError) sentinel() error {
	if s, ok := sentinels[e.Kind]; ok {
		return s
	}
	return errors.New(string(e.Kind))
}

// New builds a KernelError of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *KernelError {
	return &KernelError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a KernelError of the given kind around an existing error,
// preserving it for errors.Is/errors.As against the wrapped error too.
func Wrap(kind Kind, err error, format string, args ...any) *KernelError {
	return &KernelError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsRetryable reports whether a KernelError of this kind is worth retrying
// at the AgentRunner level (transient provider failures only).
func IsRetryable(err error) bool {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Kind == ProviderTransient
	}
	return errors.Is(err, ErrProviderTransient)
}
