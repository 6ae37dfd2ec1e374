package rules

import (
	"fmt"
	"strings"

	"github.com/formguard/go-formguard/pkg/models"
)

// WebdriverCheck detects the navigator.webdriver marker. This is the single
// strongest automation signal a host can report.
type WebdriverCheck struct{}

func NewWebdriverCheck() *WebdriverCheck { return &WebdriverCheck{} }

func (c *WebdriverCheck) Name() string { return "Webdriver Marker" }

func (c *WebdriverCheck) Description() string {
	return "Checks whether the host reports navigator.webdriver = true."
}

func (c *WebdriverCheck) Inspect(report models.EnvReport) (models.FlagType, string, bool) {
	if report.Webdriver {
		return models.FlagWebdriver, "navigator.webdriver = true", true
	}
	return "", "", false
}

// AutomationMarkerCheck detects automation-framework globals the host found
// injected into the page (selenium, phantom, nightmare and friends).
type AutomationMarkerCheck struct{}

func NewAutomationMarkerCheck() *AutomationMarkerCheck { return &AutomationMarkerCheck{} }

func (c *AutomationMarkerCheck) Name() string { return "Automation Globals" }

func (c *AutomationMarkerCheck) Description() string {
	return "Checks for automation-framework globals reported by the host."
}

func (c *AutomationMarkerCheck) Inspect(report models.EnvReport) (models.FlagType, string, bool) {
	if len(report.AutomationMarkers) == 0 {
		return "", "", false
	}
	return models.FlagAutomationMarker,
		fmt.Sprintf("markers: %s", strings.Join(report.AutomationMarkers, ", ")),
		true
}
