package feature

import (
	"errors"
	"fmt"
	"slices"
)

// Table maps each feature to the tiers permitted to use it.
type Table map[Feature][]Tier

// DefaultTable returns the entitlements shipped with the product.
func DefaultTable() Table {
	return Table{
		InterviewPractice:  {TierPaid},
		DocumentGeneration: {TierPaid},
		JobTracking:        {TierFree, TierPaid},
	}
}

// Policy answers entitlement questions against an immutable table.
// It is safe for concurrent use without locking.
type Policy struct {
	allowed map[Feature]map[Tier]struct{}
	tiers   map[Feature][]Tier
}

// NewPolicy validates table and builds a Policy from it.
// Every known feature must have at least one tier, every key must be a known
// feature, and no tier may be empty. All violations are reported together.
func NewPolicy(table Table) (*Policy, error) {
	var errs []error

	for f := range table {
		if !f.Valid() {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownFeature, f))
		}
	}

	p := &Policy{
		allowed: make(map[Feature]map[Tier]struct{}, len(features)),
		tiers:   make(map[Feature][]Tier, len(features)),
	}

	for _, f := range features {
		tiers := table[f]
		if len(tiers) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s has no permitted tier", ErrIncompleteTable, f))
			continue
		}

		set := make(map[Tier]struct{}, len(tiers))
		ordered := make([]Tier, 0, len(tiers))
		for _, t := range tiers {
			if t == "" {
				errs = append(errs, fmt.Errorf("%w: empty tier for %s", ErrInvalidTier, f))
				continue
			}
			if _, dup := set[t]; dup {
				continue
			}
			set[t] = struct{}{}
			ordered = append(ordered, t)
		}
		p.allowed[f] = set
		p.tiers[f] = ordered
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}

// MustPolicy is like NewPolicy but panics on an invalid table.
// Intended for startup wiring.
func MustPolicy(table Table) *Policy {
	p, err := NewPolicy(table)
	if err != nil {
		panic(err)
	}
	return p
}

// CanAccess reports whether tier t may use feature f.
// Unknown features and tiers are denied.
func (p *Policy) CanAccess(f Feature, t Tier) bool {
	_, ok := p.allowed[f][t]
	return ok
}

// Tiers returns the tiers permitted to use f, in table order.
func (p *Policy) Tiers(f Feature) []Tier {
	return slices.Clone(p.tiers[f])
}

// KnownTier reports whether t is permitted for at least one feature.
func (p *Policy) KnownTier(t Tier) bool {
	for _, set := range p.allowed {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Accessible returns the features tier t may use, in declaration order.
func (p *Policy) Accessible(t Tier) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if p.CanAccess(f, t) {
			out = append(out, f)
		}
	}
	return out
}
