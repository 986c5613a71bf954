package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanary/datacanary/pkg/coltype"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/tabular"
	"github.com/datacanary/datacanary/pkg/transform"
)

func sampleDataset(t *testing.T) *tabular.Dataset {
	t.Helper()
	ds, err := tabular.New(
		tabular.Column{Name: "User ID", Type: coltype.Int64, Values: []any{int64(1), int64(2)}},
		tabular.Column{Name: "Amount", Type: coltype.String, Values: []any{"10.50", "20.25"}},
		tabular.Column{Name: "Region", Type: coltype.String, Values: []any{"north", "south"}},
	)
	require.NoError(t, err)
	return ds
}

func col(source, target, targetType string) contract.PhysicalColumn {
	return contract.PhysicalColumn{SourceName: source, TargetName: target, TargetType: targetType}
}

func TestApply_RenameAndCast(t *testing.T) {
	ds := sampleDataset(t)

	schema := []contract.PhysicalColumn{
		col("User ID", "user_id", "Int64"),
		col("Amount", "amount", "Float64"),
		col("Region", "Region", "String"),
	}
	out, log, err := transform.Apply(ds, schema)
	require.NoError(t, err)
	require.Len(t, log, 3)

	assert.Equal(t, []string{"user_id", "amount", "Region"}, out.Names())
	assert.Equal(t, []string{"RENAME: User ID -> user_id"}, log[0].Actions)
	assert.Equal(t, []string{"RENAME: Amount -> amount", "CAST: String -> Float64"}, log[1].Actions)
	assert.Equal(t, []string{"NO_CHANGE: No transformations applied"}, log[2].Actions)

	typ, ok := out.TypeOf("amount")
	require.True(t, ok)
	assert.Equal(t, coltype.Float64, typ)

	// The input dataset is untouched.
	assert.Equal(t, []string{"User ID", "Amount", "Region"}, ds.Names())
}

func TestApply_MissingColumnSkipped(t *testing.T) {
	ds := sampleDataset(t)

	schema := []contract.PhysicalColumn{
		col("Ghost", "ghost", "String"),
		col("Region", "region", "String"),
	}
	out, log, err := transform.Apply(ds, schema)
	require.NoError(t, err)
	require.Len(t, log, 2)

	assert.Equal(t, []string{"SKIP: Column 'Ghost' not found in dataset"}, log[0].Actions)
	assert.Equal(t, []string{"RENAME: Region -> region"}, log[1].Actions)
	assert.False(t, out.Has("ghost"))
}

func TestApply_CastFailureIsolated(t *testing.T) {
	ds := sampleDataset(t)

	schema := []contract.PhysicalColumn{
		col("Region", "region", "Int64"), // "north" cannot become Int64
		col("Amount", "amount", "Float64"),
	}
	out, log, err := transform.Apply(ds, schema)
	require.NoError(t, err)

	require.Len(t, log[0].Actions, 2)
	assert.Equal(t, "RENAME: Region -> region", log[0].Actions[0])
	assert.Contains(t, log[0].Actions[1], "CAST_ERROR: Failed to cast to Int64:")

	// The failed column keeps its original values and type.
	typ, _ := out.TypeOf("region")
	assert.Equal(t, coltype.String, typ)
	vals, _ := out.Values("region")
	assert.Equal(t, []any{"north", "south"}, vals)

	// The cast failure did not block the other column.
	typ, _ = out.TypeOf("amount")
	assert.Equal(t, coltype.Float64, typ)
}

func TestApply_OneLogEntryPerSchemaColumnInOrder(t *testing.T) {
	ds := sampleDataset(t)

	schema := []contract.PhysicalColumn{
		col("Region", "region", "String"),
		col("Ghost", "ghost", "String"),
		col("User ID", "user_id", "Int64"),
	}
	_, log, err := transform.Apply(ds, schema)
	require.NoError(t, err)
	require.Len(t, log, 3)

	assert.Equal(t, "Region", log[0].Column)
	assert.Equal(t, "Ghost", log[1].Column)
	assert.Equal(t, "User ID", log[2].Column)
}

func TestApply_RenameCollisionIsError(t *testing.T) {
	ds := sampleDataset(t)

	schema := []contract.PhysicalColumn{
		col("User ID", "Region", "String"),
	}
	_, _, err := transform.Apply(ds, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename User ID -> Region")
}

func TestApply_InputErrors(t *testing.T) {
	ds := sampleDataset(t)

	_, _, err := transform.Apply(nil, []contract.PhysicalColumn{col("a", "a", "String")})
	assert.ErrorIs(t, err, transform.ErrEmptyDataset)

	_, _, err = transform.Apply(ds, nil)
	assert.ErrorIs(t, err, transform.ErrEmptySchema)
}
