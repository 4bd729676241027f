package feature

import "errors"

var (
	// ErrUnknownFeature is returned for identifiers outside the known set.
	ErrUnknownFeature = errors.New("feature: unknown feature")

	// ErrInvalidTier is returned for an empty tier name.
	ErrInvalidTier = errors.New("feature: invalid tier")

	// ErrIncompleteTable is returned when a policy table leaves a known
	// feature without any permitted tier.
	ErrIncompleteTable = errors.New("feature: incomplete policy table")

	// ErrInvalidPolicyFile is returned when a policy file cannot be read or parsed.
	ErrInvalidPolicyFile = errors.New("feature: invalid policy file")
)
