// Package bike maps free-text equipment names to the short codes printed on the bike log.
package bike

import (
	"fmt"
	"regexp"

	"bikelog/internal/model"
)

// Rule maps a case-insensitive pattern to a bike code
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Code    string `yaml:"code" json:"code"`
}

// DefaultRules are evaluated after any configured rules.
// More specific patterns must come before the general ones they overlap.
var DefaultRules = []Rule{
	{Pattern: `tandem`, Code: "Tandem"},
	{Pattern: `e-?mtb|e-?mountain`, Code: "eMTB"},
	{Pattern: `mtb|mountain`, Code: "MTB"},
	{Pattern: `gravel|cx|cross`, Code: "Gravel"},
	{Pattern: `\btt\b|time trial|\btri\b`, Code: "TT"},
	{Pattern: `trainer|zwift|indoor`, Code: "Trainer"},
	{Pattern: `road`, Code: "Road"},
}

var motoPattern = regexp.MustCompile(`(?i)moto`)

type compiledRule struct {
	re   *regexp.Regexp
	code string
}

// Classifier resolves equipment names to codes using an ordered rule list.
// The first matching rule wins.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles the configured rules followed by DefaultRules
func NewClassifier(configured []Rule) (*Classifier, error) {
	c := &Classifier{}
	for _, r := range append(append([]Rule{}, configured...), DefaultRules...) {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling bike pattern %q: %w", r.Pattern, err)
		}
		c.rules = append(c.rules, compiledRule{re: re, code: r.Code})
	}
	return c, nil
}

// Classify returns the code for an equipment name. ok is false when no rule matches.
func (c *Classifier) Classify(name string) (code string, ok bool) {
	if name == "" {
		return "", false
	}
	for _, r := range c.rules {
		if r.re.MatchString(name) {
			return r.code, true
		}
	}
	return "", false
}

// ClassifyGear classifies an optional equipment reference
func (c *Classifier) ClassifyGear(gear *model.Equipment) (string, bool) {
	if gear == nil {
		return "", false
	}
	return c.Classify(gear.Name)
}

// IsMoto reports whether the equipment is a motorcycle
func IsMoto(gear *model.Equipment) bool {
	return gear != nil && motoPattern.MatchString(gear.Name)
}
