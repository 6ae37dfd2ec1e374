// Package rules contains the environment checks the anomaly detector runs
// at session setup (and, for the devtools heuristic, periodically).
//
// Checks are host-agnostic: they inspect a models.EnvReport filled in by the
// UI collaborator and never touch a browser API, so the whole set is testable
// without a real host. Each triggered check maps to an anomaly flag type; the
// detector owns the flag log and the confidence penalties.
package rules

import "github.com/formguard/go-formguard/pkg/models"

// Check is one environment inspection.
type Check interface {
	// Name is the unique identifier of the check.
	Name() string

	// Description explains what the check looks for.
	Description() string

	// Inspect examines the environment report. When triggered it returns
	// the flag type to raise and a human-readable detail.
	Inspect(report models.EnvReport) (flag models.FlagType, detail string, triggered bool)
}

// SetupChecks returns the default one-shot checks run when tracking starts.
func SetupChecks() []Check {
	return []Check{
		NewWebdriverCheck(),
		NewUserAgentCheck(),
		NewAutomationMarkerCheck(),
		NewViewportCheck(),
	}
}
