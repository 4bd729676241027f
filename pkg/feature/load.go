package feature

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk shape of a policy:
//
//	features:
//	  interview-practice: [paid]
//	  job-tracking: [free, paid]
type policyFile struct {
	Features map[string][]string `yaml:"features"`
}

// LoadPolicy reads and validates a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document and validates it with NewPolicy.
// Feature and tier names are normalized the same way ParseFeature and
// ParseTier do.
func ParsePolicy(data []byte) (*Policy, error) {
	var doc policyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}

	table := make(Table, len(doc.Features))
	for name, tierNames := range doc.Features {
		f, err := ParseFeature(name)
		if err != nil {
			return nil, err
		}
		tiers := make([]Tier, 0, len(tierNames))
		for _, tn := range tierNames {
			t, err := ParseTier(tn)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %s", err, f)
			}
			tiers = append(tiers, t)
		}
		table[f] = append(table[f], tiers...)
	}

	return NewPolicy(table)
}
