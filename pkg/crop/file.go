package crop

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk crop configuration.
//
//	overrides:
//	  ILCE-7M4: 1.0
//	  X-T5: 1.5
//	rules:            # optional, replaces the built-in table when present
//	  - keyword: "ILCE-6"
//	    factor: 1.5
type File struct {
	Overrides map[string]float64 `yaml:"overrides,omitempty"`
	Rules     Table              `yaml:"rules,omitempty"`
}

// LoadFile reads a crop configuration from path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open crop file: %w", err)
	}
	defer f.Close()

	cf, err := Decode(f)
	if err != nil {
		return File{}, fmt.Errorf("crop file %s: %w", path, err)
	}
	return cf, nil
}

// Decode parses and validates a crop configuration.
func Decode(r io.Reader) (File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return File{}, err
	}
	return cf, nil
}

// Validate rejects non-positive factors in both sections.
func (cf File) Validate() error {
	for model, factor := range cf.Overrides {
		if !(factor > 0) || math.IsInf(factor, 0) {
			return fmt.Errorf("override %q: %w", model, ErrInvalidFactor)
		}
	}
	return cf.Rules.Validate()
}

// Estimator builds an Estimator from the file. An empty rules section keeps
// the built-in table.
func (cf File) Estimator() Estimator {
	e := Estimator{Overrides: cf.Overrides}
	if len(cf.Rules) > 0 {
		e.Rules = cf.Rules
	}
	return e
}

// Encode writes cf as YAML.
func (cf File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cf); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// SuggestFile returns an override skeleton for models, each with Suggest's factor.
func SuggestFile(models []string) File {
	uniq := make(map[string]bool, len(models))
	sorted := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" || uniq[m] {
			continue
		}
		uniq[m] = true
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)

	cf := File{Overrides: make(map[string]float64, len(sorted))}
	for _, m := range sorted {
		cf.Overrides[m] = Suggest(m)
	}
	return cf
}

// Suggest guesses a crop factor from a model name for seeding an override
// table. It is looser than the rule table: matching is case-insensitive and
// later checks take precedence.
func Suggest(model string) float64 {
	s := strings.ToUpper(model)
	factor := 1.0
	if containsAny(s, "ILCE-6", "A6", "X-T", "X-S", "X-H", "ZV-E", "ALPHA 6") {
		factor = 1.5
	}
	if strings.Contains(s, "EOS R") && containsAny(s, "R7", "R10", "R50") {
		factor = 1.6
	}
	if containsAny(s, "OM-", "E-M", "DMC-G", "DC-G", "GH", "GX") {
		factor = 2.0
	}
	return factor
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
