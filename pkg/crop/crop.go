package crop

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrInvalidFactor is returned when a rule or override carries a factor <= 0.
var ErrInvalidFactor = errors.New("crop factor must be positive")

// Rule maps a model keyword to a crop factor. A rule matches when Keyword is
// a (case-sensitive) substring of the camera model.
type Rule struct {
	Keyword string  `yaml:"keyword"`
	Factor  float64 `yaml:"factor"`
}

// Table is an ordered list of rules. The first matching rule wins, so the
// declaration order is part of the result.
type Table []Rule

var defaultRules = Table{
	// Sony full frame
	{"ILCE-7", 1.0}, {"ILCE-7C", 1.0}, {"ILCE-7CM2", 1.0}, {"ILCE-7M4", 1.0}, {"ILCE-9", 1.0}, {"ILCE-1", 1.0},
	// Sony APS-C
	{"ILCE-6000", 1.5}, {"ILCE-6100", 1.5}, {"ILCE-6300", 1.5}, {"ILCE-6400", 1.5}, {"ILCE-6500", 1.5}, {"ZV-E10", 1.5},
	// Fujifilm APS-C
	{"X-T50", 1.5}, {"X-T30", 1.5}, {"X-S10", 1.5}, {"X-H2", 1.5}, {"X-T5", 1.5}, {"X-E4", 1.5},
	// Canon RF APS-C
	{"EOS R50", 1.6}, {"EOS R10", 1.6}, {"EOS R7", 1.6},
	// Micro Four Thirds
	{"OM-", 2.0}, {"E-M1", 2.0}, {"E-M5", 2.0}, {"DC-G9", 2.0}, {"DMC-GX", 2.0}, {"DC-GH", 2.0},
	// L-mount full frame
	{"DC-S5", 1.0},
}

// DefaultTable returns a copy of the built-in keyword table.
func DefaultTable() Table {
	return slices.Clone(defaultRules)
}

// Validate reports the first rule with a non-positive factor.
func (t Table) Validate() error {
	for i, r := range t {
		if !(r.Factor > 0) || math.IsInf(r.Factor, 0) {
			return fmt.Errorf("rule %d (%q): %w", i, r.Keyword, ErrInvalidFactor)
		}
	}
	return nil
}

// Lookup returns the factor of the first rule whose keyword is contained in model.
func (t Table) Lookup(model string) (float64, bool) {
	for _, r := range t {
		if strings.Contains(model, r.Keyword) {
			return r.Factor, true
		}
	}
	return 0, false
}

// Estimator resolves 35 mm-equivalent focal lengths.
//
// Overrides are exact model names and are consulted before Rules.
// A nil Rules table means DefaultTable.
type Estimator struct {
	Rules     Table
	Overrides map[string]float64
}

// Estimate returns the 35 mm-equivalent focal length and whether it was
// derived from a crop factor.
//
// An existing equivalent (> 0) is returned unchanged with estimated=false; it
// is never replaced by an override or a table match. Estimates are rounded to
// one decimal.
func (e Estimator) Estimate(focalMM *float64, model string, existing *float64) (value *float64, estimated bool) {
	if existing != nil && *existing > 0 {
		v := *existing
		return &v, false
	}
	if focalMM == nil || *focalMM <= 0 || model == "" {
		return nil, false
	}

	factor, ok := e.factor(model)
	if !ok {
		return nil, false
	}
	v := math.Round(*focalMM*factor*10) / 10
	return &v, true
}

func (e Estimator) factor(model string) (float64, bool) {
	if f, ok := e.Overrides[model]; ok && f > 0 {
		return f, true
	}
	rules := e.Rules
	if rules == nil {
		rules = defaultRules
	}
	return rules.Lookup(model)
}
