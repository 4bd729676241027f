package feature

import (
	"fmt"
	"slices"
	"strings"
)

// Feature identifies a gated product capability.
// The set is closed: values outside Features() are rejected by ParseFeature
// and by NewPolicy.
type Feature string

// Known features. Adding one requires a matching entry in every policy table.
const (
	InterviewPractice  Feature = "interview-practice"
	DocumentGeneration Feature = "document-generation"
	JobTracking        Feature = "job-tracking"
)

var features = []Feature{
	InterviewPractice,
	DocumentGeneration,
	JobTracking,
}

// Features returns every known feature in declaration order.
func Features() []Feature {
	return slices.Clone(features)
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	return slices.Contains(features, f)
}

// String implements fmt.Stringer.
func (f Feature) String() string {
	return string(f)
}

// ParseFeature converts an identifier from the UI layer into a Feature.
func ParseFeature(s string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
	}
	return f, nil
}

// Tier is a subscription level. The policy engine does not assume any fixed
// number of tiers; free and paid are the ones shipped today.
type Tier string

// Subscription tiers.
const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

// ParseTier normalizes a tier name. Empty input is rejected.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return "", ErrInvalidTier
	}
	return t, nil
}
