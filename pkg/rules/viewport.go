package rules

import (
	"fmt"

	"github.com/formguard/go-formguard/pkg/models"
)

// ViewportCheck inspects window geometry for headless signatures: a window
// without outer dimensions, or a viewport exactly equal to the window (no
// browser chrome at all).
type ViewportCheck struct{}

func NewViewportCheck() *ViewportCheck { return &ViewportCheck{} }

func (c *ViewportCheck) Name() string { return "Viewport Ratio" }

func (c *ViewportCheck) Description() string {
	return "Checks window geometry for headless-browser signatures."
}

func (c *ViewportCheck) Inspect(report models.EnvReport) (models.FlagType, string, bool) {
	// No geometry reported at all: nothing to judge.
	if report.InnerWidth == 0 && report.InnerHeight == 0 {
		return "", "", false
	}
	if report.OuterWidth == 0 || report.OuterHeight == 0 {
		return models.FlagAutomationMarker, "window lacks outer dimensions", true
	}
	if report.InnerWidth == report.OuterWidth && report.InnerHeight == report.OuterHeight {
		return models.FlagAutomationMarker, "viewport equals window size", true
	}
	return "", "", false
}

// DevtoolsThreshold is the window-to-viewport dimension delta (px) beyond
// which an open devtools panel is assumed.
const DevtoolsThreshold = 160

// DevtoolsCheck is the periodic devtools-size heuristic: a large delta
// between outer and inner dimensions usually means a docked devtools panel.
// Inherently environment-specific; it only fires when the host refreshes the
// geometry in the report.
type DevtoolsCheck struct {
	Threshold int
}

func NewDevtoolsCheck() *DevtoolsCheck {
	return &DevtoolsCheck{Threshold: DevtoolsThreshold}
}

func (c *DevtoolsCheck) Name() string { return "DevTools Size" }

func (c *DevtoolsCheck) Description() string {
	return "Checks for a window/viewport dimension delta suggesting open devtools."
}

func (c *DevtoolsCheck) Inspect(report models.EnvReport) (models.FlagType, string, bool) {
	if report.OuterWidth == 0 || report.OuterHeight == 0 {
		return "", "", false
	}
	dw := report.OuterWidth - report.InnerWidth
	dh := report.OuterHeight - report.InnerHeight
	if dw > c.Threshold || dh > c.Threshold {
		return models.FlagDevtools,
			fmt.Sprintf("dimension delta %dx%d", dw, dh),
			true
	}
	return "", "", false
}
