// internal/safety/validator.go
package safety

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ValidationResult separates hard failures from advisory notes: issues
// block the send, warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type namedRegex struct {
	name string
	re   *regexp.Regexp
}

// Built-in spam denylist. Matches are hard issues: a message tripping one
// of these is exactly what gets sending accounts flagged.
var builtinSpam = map[string]string{
	"urgency_bait":    `(?i)\b(act now|limited time|urgent response|expires (today|soon))\b`,
	"free_money":      `(?i)\b(100% free|make money fast|risk[ -]free|double your (income|money))\b`,
	"guarantee":       `(?i)\bguaranteed?( results| income| success)\b`,
	"prize_bait":      `(?i)\b(congratulations,? you('ve| have) (won|been selected)|claim your (prize|reward))\b`,
	"click_bait":      `(?i)\b(click here|click below|open immediately)\b`,
	"pressure_close":  `(?i)\b(no obligation|what (are you|r u) waiting for)\b`,
	"crypto_pitch":    `(?i)\b(crypto opportunity|passive income stream)\b`,
}

var urlRe = regexp.MustCompile(`https?://[^\s]+`)
var punctRunRe = regexp.MustCompile(`[!?]{3,}`)

const (
	minMessageLength = 10
	maxMessageLength = 5000
	maxSubjectLength = 120
	maxCapsRatio     = 0.30
)

// Validator runs deterministic content checks before any send.
type Validator struct {
	spam []namedRegex
}

func NewValidator() *Validator {
	v := &Validator{}
	for name, pattern := range builtinSpam {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		v.spam = append(v.spam, namedRegex{name: name, re: re})
	}
	return v
}

// ValidateMessage checks content (and an optional subject line) against the
// spam denylist and structural limits. Never returns an error: the result
// is always inspectable.
func (v *Validator) ValidateMessage(content, subject string) ValidationResult {
	var issues, warnings []string

	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minMessageLength {
		issues = append(issues, fmt.Sprintf("message too short (%d chars, minimum %d)", len(trimmed), minMessageLength))
	}
	if len(trimmed) > maxMessageLength {
		issues = append(issues, fmt.Sprintf("message too long (%d chars, maximum %d)", len(trimmed), maxMessageLength))
	}

	for _, nr := range v.spam {
		if nr.re.MatchString(content) {
			issues = append(issues, "spam pattern detected: "+nr.name)
		}
	}

	if ratio, letters := capsRatio(content); letters >= 20 && ratio > maxCapsRatio {
		issues = append(issues, fmt.Sprintf("excessive capitalization (%.0f%% of letters)", ratio*100))
	}

	if punctRunRe.MatchString(content) {
		warnings = append(warnings, "excessive punctuation runs")
	}

	if urls := urlRe.FindAllString(content, -1); len(urls) > 3 {
		issues = append(issues, fmt.Sprintf("too many links (%d)", len(urls)))
	} else if len(urls) > 1 {
		warnings = append(warnings, fmt.Sprintf("multiple links (%d)", len(urls)))
	}

	if subject != "" {
		if len(subject) > maxSubjectLength {
			issues = append(issues, fmt.Sprintf("subject too long (%d chars, maximum %d)", len(subject), maxSubjectLength))
		}
		if ratio, letters := capsRatio(subject); letters >= 10 && ratio > 0.5 {
			warnings = append(warnings, "subject is mostly uppercase")
		}
	}

	return ValidationResult{Valid: len(issues) == 0, Issues: issues, Warnings: warnings}
}

func capsRatio(s string) (float64, int) {
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0, 0
	}
	return float64(upper) / float64(letters), letters
}
