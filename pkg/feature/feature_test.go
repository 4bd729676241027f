package feature_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/careerdesk/pkg/feature"
)

func TestParseFeature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    feature.Feature
		wantErr bool
	}{
		{"interview-practice", feature.InterviewPractice, false},
		{"Document-Generation", feature.DocumentGeneration, false},
		{" job-tracking ", feature.JobTracking, false},
		{"time-travel", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := feature.ParseFeature(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, feature.ErrUnknownFeature)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	got, err := feature.ParseTier(" PAID ")
	require.NoError(t, err)
	require.Equal(t, feature.TierPaid, got)

	got, err = feature.ParseTier("enterprise")
	require.NoError(t, err)
	require.Equal(t, feature.Tier("enterprise"), got)

	_, err = feature.ParseTier("  ")
	require.ErrorIs(t, err, feature.ErrInvalidTier)
}

func TestFeatures(t *testing.T) {
	t.Parallel()

	all := feature.Features()
	require.Equal(t, []feature.Feature{
		feature.InterviewPractice,
		feature.DocumentGeneration,
		feature.JobTracking,
	}, all)

	all[0] = "mutated"
	require.Equal(t, feature.InterviewPractice, feature.Features()[0])

	for _, f := range feature.Features() {
		require.True(t, f.Valid())
		require.Equal(t, string(f), f.String())
	}
	require.False(t, feature.Feature("time-travel").Valid())
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		p, err := feature.ParsePolicy([]byte(`
features:
  interview-practice: [paid]
  document-generation: [Paid]
  job-tracking:
    - free
    - paid
`))
		require.NoError(t, err)
		require.False(t, p.CanAccess(feature.InterviewPractice, feature.TierFree))
		require.True(t, p.CanAccess(feature.DocumentGeneration, feature.TierPaid))
		require.True(t, p.CanAccess(feature.JobTracking, feature.TierFree))
	})

	t.Run("missing feature", func(t *testing.T) {
		t.Parallel()
		_, err := feature.ParsePolicy([]byte("features:\n  job-tracking: [free]\n"))
		require.ErrorIs(t, err, feature.ErrIncompleteTable)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()
		_, err := feature.ParsePolicy([]byte("features:\n  time-travel: [paid]\n"))
		require.ErrorIs(t, err, feature.ErrUnknownFeature)
	})

	t.Run("empty tier", func(t *testing.T) {
		t.Parallel()
		_, err := feature.ParsePolicy([]byte("features:\n  job-tracking: ['']\n"))
		require.ErrorIs(t, err, feature.ErrInvalidTier)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := feature.ParsePolicy([]byte("features: [unclosed"))
		require.ErrorIs(t, err, feature.ErrInvalidPolicyFile)
	})
}

func TestLoadPolicy(t *testing.T) {
	t.Parallel()

	t.Run("from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`features:
  interview-practice: [free, paid]
  document-generation: [paid]
  job-tracking: [free, paid]
`), 0o600))

		p, err := feature.LoadPolicy(path)
		require.NoError(t, err)
		require.True(t, p.CanAccess(feature.InterviewPractice, feature.TierFree))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorIs(t, err, feature.ErrInvalidPolicyFile)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
