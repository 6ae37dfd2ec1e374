package rules

import (
	"regexp"

	"github.com/formguard/go-formguard/pkg/models"
)

// uaPatterns match user agents of common automation stacks.
var uaPatterns = compileUAPatterns()

func compileUAPatterns() []*regexp.Regexp {
	patterns := []string{
		`(?i)headless`,
		`(?i)phantomjs`,
		`(?i)selenium`,
		`(?i)webdriver`,
		`(?i)puppeteer`,
		`(?i)playwright`,
		`(?i)cypress`,
		`(?i)nightwatch`,
		`(?i)zombie`,
		`(?i)electron`,
		`(?i)chromium.*headless`,
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// UserAgentCheck matches the reported user agent against known automation
// stack patterns.
type UserAgentCheck struct {
	patterns []*regexp.Regexp
}

func NewUserAgentCheck() *UserAgentCheck {
	return &UserAgentCheck{patterns: uaPatterns}
}

func (c *UserAgentCheck) Name() string { return "User-Agent Pattern" }

func (c *UserAgentCheck) Description() string {
	return "Checks the user agent for automation framework signatures."
}

func (c *UserAgentCheck) Inspect(report models.EnvReport) (models.FlagType, string, bool) {
	if report.UserAgent == "" {
		return "", "", false
	}
	for _, re := range c.patterns {
		if re.MatchString(report.UserAgent) {
			return models.FlagAutomationMarker, "automation pattern in user agent", true
		}
	}
	return "", "", false
}
