package feature_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/careerdesk/pkg/feature"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())

	tests := []struct {
		feature feature.Feature
		tier    feature.Tier
		want    bool
	}{
		{feature.InterviewPractice, feature.TierFree, false},
		{feature.InterviewPractice, feature.TierPaid, true},
		{feature.DocumentGeneration, feature.TierFree, false},
		{feature.DocumentGeneration, feature.TierPaid, true},
		{feature.JobTracking, feature.TierFree, true},
		{feature.JobTracking, feature.TierPaid, true},
		{feature.JobTracking, feature.Tier("enterprise"), false},
		{feature.Feature("time-travel"), feature.TierPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.feature)+"/"+string(tt.tier), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, p.CanAccess(tt.feature, tt.tier))
			require.Equal(t, tt.want, p.CanAccess(tt.feature, tt.tier), "lookup must be deterministic")
		})
	}
}

func TestPolicy_EveryFeatureHasTiers(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())
	for _, f := range feature.Features() {
		require.NotEmpty(t, p.Tiers(f), f)
	}
}

func TestNewPolicy(t *testing.T) {
	t.Parallel()

	t.Run("missing feature", func(t *testing.T) {
		t.Parallel()
		table := feature.DefaultTable()
		delete(table, feature.JobTracking)

		_, err := feature.NewPolicy(table)
		require.ErrorIs(t, err, feature.ErrIncompleteTable)
		require.Contains(t, err.Error(), string(feature.JobTracking))
	})

	t.Run("empty tier set", func(t *testing.T) {
		t.Parallel()
		table := feature.DefaultTable()
		table[feature.InterviewPractice] = nil

		_, err := feature.NewPolicy(table)
		require.ErrorIs(t, err, feature.ErrIncompleteTable)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()
		table := feature.DefaultTable()
		table["time-travel"] = []feature.Tier{feature.TierPaid}

		_, err := feature.NewPolicy(table)
		require.ErrorIs(t, err, feature.ErrUnknownFeature)
	})

	t.Run("empty tier", func(t *testing.T) {
		t.Parallel()
		table := feature.DefaultTable()
		table[feature.JobTracking] = []feature.Tier{""}

		_, err := feature.NewPolicy(table)
		require.ErrorIs(t, err, feature.ErrInvalidTier)
	})

	t.Run("all violations reported", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewPolicy(feature.Table{"time-travel": {feature.TierPaid}})
		require.ErrorIs(t, err, feature.ErrUnknownFeature)
		require.ErrorIs(t, err, feature.ErrIncompleteTable)
	})

	t.Run("custom tiers", func(t *testing.T) {
		t.Parallel()
		p, err := feature.NewPolicy(feature.Table{
			feature.InterviewPractice:  {"pro", "enterprise"},
			feature.DocumentGeneration: {"enterprise"},
			feature.JobTracking:        {feature.TierFree, "pro", "pro"},
		})
		require.NoError(t, err)
		require.True(t, p.CanAccess(feature.InterviewPractice, "pro"))
		require.False(t, p.CanAccess(feature.DocumentGeneration, "pro"))
		require.Equal(t, []feature.Tier{feature.TierFree, "pro"}, p.Tiers(feature.JobTracking))
	})
}

func TestMustPolicy(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { feature.MustPolicy(feature.Table{}) })
	require.NotPanics(t, func() { feature.MustPolicy(feature.DefaultTable()) })
}

func TestPolicy_Tiers(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())

	tiers := p.Tiers(feature.JobTracking)
	require.Equal(t, []feature.Tier{feature.TierFree, feature.TierPaid}, tiers)

	tiers[0] = "mutated"
	require.True(t, p.CanAccess(feature.JobTracking, feature.TierFree))
	require.Equal(t, feature.TierFree, p.Tiers(feature.JobTracking)[0])

	require.Nil(t, p.Tiers("time-travel"))
}

func TestPolicy_Accessible(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())

	require.Equal(t, []feature.Feature{feature.JobTracking}, p.Accessible(feature.TierFree))
	require.Equal(t, feature.Features(), p.Accessible(feature.TierPaid))
	require.Empty(t, p.Accessible("unknown"))
}

func TestPolicy_KnownTier(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())
	require.True(t, p.KnownTier(feature.TierFree))
	require.True(t, p.KnownTier(feature.TierPaid))
	require.False(t, p.KnownTier("enterprise"))
}

func TestPolicy_ConcurrentReads(t *testing.T) {
	t.Parallel()

	p := feature.MustPolicy(feature.DefaultTable())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if p.CanAccess(feature.InterviewPractice, feature.TierFree) {
					t.Error("free tier must not access interview practice")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDefaultTable_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a := feature.DefaultTable()
	a[feature.InterviewPractice] = append(a[feature.InterviewPractice], feature.TierFree)

	p := feature.MustPolicy(feature.DefaultTable())
	require.False(t, p.CanAccess(feature.InterviewPractice, feature.TierFree))
}
