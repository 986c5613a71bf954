package reconcile_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanary/datacanary/pkg/advice"
	"github.com/datacanary/datacanary/pkg/profile"
	"github.com/datacanary/datacanary/pkg/reconcile"
)

func profiles(names ...string) []profile.ColumnProfile {
	out := make([]profile.ColumnProfile, 0, len(names))
	for _, n := range names {
		out = append(out, profile.ColumnProfile{Name: n, Dtype: "String"})
	}
	return out
}

func TestColumns_PrecedenceUserOverAIOverSource(t *testing.T) {
	naming := &advice.NamingReport{
		Violations: []advice.NamingSuggestion{
			{ColumnName: "User ID", SuggestedName: "user_id"},
		},
	}
	overrides := map[string]reconcile.Override{
		"User ID": {Name: "customer_id"},
	}

	cols, err := reconcile.Columns(profiles("User ID"), naming, nil, overrides)
	require.NoError(t, err)
	require.Len(t, cols, 1)

	c := cols[0]
	assert.Equal(t, "User ID", c.SourceName)
	assert.Equal(t, "customer_id", c.TargetName)
	assert.Equal(t, "user_id", c.AISuggestedName)
	assert.Equal(t, "customer_id", c.UserOverrideName)
}

func TestColumns_AIUsedWhenNoOverride(t *testing.T) {
	naming := &advice.NamingReport{
		Violations: []advice.NamingSuggestion{
			{ColumnName: "OrderDate", SuggestedName: "order_date"},
		},
	}
	types := &advice.TypeReport{
		Suggestions: []advice.TypeSuggestion{
			{ColumnName: "OrderDate", SuggestedType: "Date"},
		},
	}

	cols, err := reconcile.Columns(profiles("OrderDate"), naming, types, nil)
	require.NoError(t, err)

	assert.Equal(t, "order_date", cols[0].TargetName)
	assert.Equal(t, "Date", cols[0].TargetType)
	assert.Empty(t, cols[0].UserOverrideName)
}

func TestColumns_SourceFallback(t *testing.T) {
	in := []profile.ColumnProfile{{Name: "amount", Dtype: "Float64"}}
	cols, err := reconcile.Columns(in, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "amount", cols[0].TargetName)
	assert.Equal(t, "Float64", cols[0].SourceType)
	assert.Equal(t, "Float64", cols[0].TargetType)
}

func TestColumns_EmptyDtypeDefaultsTargetToString(t *testing.T) {
	in := []profile.ColumnProfile{{Name: "mystery"}}
	cols, err := reconcile.Columns(in, nil, nil, nil)
	require.NoError(t, err)

	// Source type stays as observed (empty); only the target defaults.
	assert.Empty(t, cols[0].SourceType)
	assert.Equal(t, "String", cols[0].TargetType)
}

func TestColumns_StaleSuggestionsSilentlyUnmatched(t *testing.T) {
	naming := &advice.NamingReport{
		Violations: []advice.NamingSuggestion{
			{ColumnName: "renamed_already", SuggestedName: "whatever"},
		},
	}
	overrides := map[string]reconcile.Override{
		"gone": {Name: "never_applied"},
	}

	cols, err := reconcile.Columns(profiles("amount"), naming, nil, overrides)
	require.NoError(t, err)
	assert.Equal(t, "amount", cols[0].TargetName)
	assert.Empty(t, cols[0].AISuggestedName)
}

func TestColumns_OrderAndIndexPreserved(t *testing.T) {
	cols, err := reconcile.Columns(profiles("c", "a", "b"), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, cols, 3)

	for i, want := range []string{"c", "a", "b"} {
		assert.Equal(t, want, cols[i].SourceName)
		assert.Equal(t, i, cols[i].ColumnIndex)
	}
}

func TestColumns_Idempotent(t *testing.T) {
	naming := &advice.NamingReport{
		Violations: []advice.NamingSuggestion{
			{ColumnName: "User ID", SuggestedName: "user_id"},
		},
	}

	first, err := reconcile.Columns(profiles("User ID", "amount"), naming, nil, nil)
	require.NoError(t, err)
	second, err := reconcile.Columns(profiles("User ID", "amount"), naming, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestColumns_NullabilityFromNullRatio(t *testing.T) {
	in := []profile.ColumnProfile{
		{Name: "full", Dtype: "Int64", NullRatio: 0},
		{Name: "holey", Dtype: "Int64", NullRatio: 0.25},
	}
	cols, err := reconcile.Columns(in, nil, nil, nil)
	require.NoError(t, err)

	assert.False(t, cols[0].IsNullable)
	assert.True(t, cols[1].IsNullable)
}

func TestColumns_Errors(t *testing.T) {
	_, err := reconcile.Columns(nil, nil, nil, nil)
	assert.ErrorIs(t, err, reconcile.ErrNoColumns)

	_, err = reconcile.Columns([]profile.ColumnProfile{{Name: "ok"}, {Name: ""}}, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.ErrUnnamedColumn))
	assert.Contains(t, err.Error(), "index 1")
}
