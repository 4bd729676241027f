// Package feature decides which subscription tiers may use which product
// features.
//
// The feature set is a closed enumeration shared with the UI layer. A Policy
// is built once at startup from a Table and is immutable afterwards, so
// lookups need no synchronization.
//
// # Basic Usage
//
//	policy := feature.MustPolicy(feature.DefaultTable())
//
//	if policy.CanAccess(feature.InterviewPractice, feature.TierFree) {
//		// never reached with the default table
//	}
//
// # Policy Files
//
// Entitlements can be kept outside the binary as YAML:
//
//	features:
//	  interview-practice: [paid]
//	  document-generation: [paid]
//	  job-tracking: [free, paid]
//
//	policy, err := feature.LoadPolicy("/etc/careerdesk/policy.yaml")
//
// A table that leaves any known feature without a tier is rejected with
// ErrIncompleteTable, and unknown feature names with ErrUnknownFeature, so a
// misconfigured deployment fails at startup instead of silently denying
// access at request time.
package feature
