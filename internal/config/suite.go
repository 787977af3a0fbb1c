package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"lakewap/internal/domain"
)

// SuiteFile is the YAML shape of a quality-check suite.
//
//	checks:
//	  - id: user_id_nulls
//	    tier: critical
//	    kind: null_ratio
//	    column: user_id
//	  - id: age_range
//	    tier: critical
//	    kind: value_range
//	    column: age
//	    min: 0
//	    max: 120
type SuiteFile struct {
	Checks []SuiteCheck `yaml:"checks"`
}

// SuiteCheck is one configured check spec.
type SuiteCheck struct {
	ID     string   `yaml:"id"`
	Tier   string   `yaml:"tier"`
	Kind   string   `yaml:"kind"`
	Column string   `yaml:"column,omitempty"`
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
}

// LoadSuite reads and validates a check suite from a YAML file.
func LoadSuite(path string) ([]domain.QualityCheckSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open check suite %q: %w", path, err)
	}
	defer f.Close()
	suite, err := ParseSuite(f)
	if err != nil {
		return nil, fmt.Errorf("check suite %q: %w", path, err)
	}
	return suite, nil
}

// ParseSuite decodes and validates a check suite.
func ParseSuite(r io.Reader) ([]domain.QualityCheckSpec, error) {
	var file SuiteFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	seen := make(map[string]bool, len(file.Checks))
	specs := make([]domain.QualityCheckSpec, 0, len(file.Checks))
	for _, c := range file.Checks {
		spec := domain.QualityCheckSpec{
			ID:     c.ID,
			Tier:   domain.CheckTier(c.Tier),
			Kind:   domain.CheckKind(c.Kind),
			Column: c.Column,
			Min:    c.Min,
			Max:    c.Max,
		}
		// The row-count floor comes from the work order, not the suite.
		if spec.Kind == domain.CheckRowCount {
			return nil, fmt.Errorf("check %q: row_count is controlled by the work order's min_rows", c.ID)
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate check id %q", spec.ID)
		}
		seen[spec.ID] = true
		specs = append(specs, spec)
	}
	return specs, nil
}
