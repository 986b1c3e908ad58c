package stage

import (
	"context"
	"errors"

	"vidlingo/internal/services"
)

// Classify tags a stage error whose cause is an expired deadline as
// services.ErrTimeout. Errors already carrying a marker are returned as is;
// untagged errors become services.ErrDelegate.
func Classify(err error, name Name, operation string) error {
	if err == nil {
		return nil
	}
	if hasMarker(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, name.String(), operation, "deadline exceeded", err)
	}
	return services.Wrap(services.ErrDelegate, name.String(), operation, "", err)
}

func hasMarker(err error) bool {
	for _, marker := range []error{
		services.ErrDelegate,
		services.ErrContractViolation,
		services.ErrValidation,
		services.ErrConfiguration,
		services.ErrNotFound,
		services.ErrTimeout,
		services.ErrTransient,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}
