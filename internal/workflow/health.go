package workflow

import (
	"context"

	"vidlingo/internal/stage"
)

// HealthCheck probes one dependency for the status view. Checks must be
// cheap; they run on every Status call.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

func runHealthChecks(ctx context.Context, checks []HealthCheck) map[string]stage.Health {
	if len(checks) == 0 {
		return nil
	}
	out := make(map[string]stage.Health, len(checks))
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		if err := check.Check(ctx); err != nil {
			out[check.Name] = stage.Unhealthy(check.Name, err.Error())
			continue
		}
		out[check.Name] = stage.Healthy(check.Name)
	}
	return out
}
