package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDelegate marks a failure reported by an external collaborator
	// (transcript source, downloader, translator, renderer, publisher, notifier).
	ErrDelegate = errors.New("delegate error")
	// ErrContractViolation marks a collaborator response that breaks an agreed
	// shape, such as a translation batch whose length differs from its input.
	ErrContractViolation = errors.New("contract violation")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("timeout")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrDelegate
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether err is worth another attempt. Only transient and
// timeout failures qualify; contract violations never do even when the
// underlying cause looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContractViolation) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// ErrorDetails summarises a wrapped error for structured logs and status views.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

// Details classifies err into a kind label plus an operator hint.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	d := ErrorDetails{Message: err.Error()}
	switch {
	case errors.Is(err, ErrContractViolation):
		d.Kind = "contract_violation"
		d.Hint = "collaborator returned a malformed response; inspect translator output"
	case errors.Is(err, ErrTimeout):
		d.Kind = "timeout"
		d.Hint = "raise the stage timeout or check collaborator availability"
	case errors.Is(err, ErrValidation):
		d.Kind = "validation"
		d.Hint = "correct the request and resubmit"
	case errors.Is(err, ErrConfiguration):
		d.Kind = "configuration"
		d.Hint = "check config.toml and credentials"
	case errors.Is(err, ErrNotFound):
		d.Kind = "not_found"
		d.Hint = "artifact or resource is missing"
	case errors.Is(err, ErrTransient):
		d.Kind = "transient"
		d.Hint = "retry later"
	default:
		d.Kind = "delegate"
		d.Hint = "check collaborator logs"
	}
	return d
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
