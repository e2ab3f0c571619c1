package featurestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

func newTestStore(t *testing.T) buildingModel.FeatureStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRecords() []buildingModel.FeatureRecord {
	return []buildingModel.FeatureRecord{
		{
			Id: "bat-001", Department: "93", Commune: "Montreuil",
			Category: buildingModel.CategoryResidential, ConstructionYear: 1930,
			Before1948: true, Before1975: true,
			Surface: 420, SurfaceCategory: "petite", EnergyLabel: "F", ThermalSieve: true,
		},
		{
			Id: "bat-002", Department: "93", Commune: "Pantin",
			Category: buildingModel.CategoryTertiary, ConstructionYear: 1990,
			Surface: 1200, SurfaceCategory: "grande", EnergyLabel: "C",
		},
		{
			Id: "bat-003", Department: "75", Commune: "Paris",
			Category: buildingModel.CategoryResidential, ConstructionYear: 1960,
			Before1975: true,
			Surface: 600, SurfaceCategory: "moyenne", EnergyLabel: "G", ThermalSieve: true,
		},
	}
}

func TestReplaceDepartmentIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	records := seedRecords()

	require.NoError(t, store.ReplaceDepartment(ctx, "93", records[:2]))
	require.NoError(t, store.ReplaceDepartment(ctx, "93", records[:2]))

	got, err := store.ListByDepartment(ctx, "93")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "bat-001", got[0].Id)
	require.True(t, got[0].ThermalSieve)
	require.Equal(t, buildingModel.CategoryResidential, got[0].Category)
}

func TestReplaceDepartmentDoesNotTouchOtherDepartments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	records := seedRecords()

	require.NoError(t, store.ReplaceDepartment(ctx, "93", records[:2]))
	require.NoError(t, store.ReplaceDepartment(ctx, "75", records[2:]))
	require.NoError(t, store.ReplaceDepartment(ctx, "93", records[:1]))

	paris, err := store.ListByDepartment(ctx, "75")
	require.NoError(t, err)
	require.Len(t, paris, 1)

	departments, err := store.Departments(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"75", "93"}, departments)
}

func TestAggregateQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	records := seedRecords()
	require.NoError(t, store.ReplaceDepartment(ctx, "93", records[:2]))
	require.NoError(t, store.ReplaceDepartment(ctx, "75", records[2:]))

	sieve := true
	tests := []struct {
		name      string
		query     buildingModel.AggregateQuery
		wantValue float64
		wantCount int64
	}{
		{
			name:      "count all in departement",
			query:     buildingModel.AggregateQuery{Op: buildingModel.AggregateCount, Department: "93"},
			wantValue: 2, wantCount: 2,
		},
		{
			name: "count tertiary",
			query: buildingModel.AggregateQuery{
				Op: buildingModel.AggregateCount, Department: "93",
				Category: buildingModel.CategoryTertiary,
			},
			wantValue: 1, wantCount: 1,
		},
		{
			name:      "average surface",
			query:     buildingModel.AggregateQuery{Op: buildingModel.AggregateAverage, Department: "93"},
			wantValue: 810, wantCount: 2,
		},
		{
			name:      "thermal sieve share",
			query:     buildingModel.AggregateQuery{Op: buildingModel.AggregatePercentage, Department: "93"},
			wantValue: 50, wantCount: 2,
		},
		{
			name: "count sieves before 1975",
			query: buildingModel.AggregateQuery{
				Op: buildingModel.AggregateCount, ThermalSieve: &sieve, YearBefore: 1975,
			},
			wantValue: 2, wantCount: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Aggregate(ctx, tc.query)
			require.NoError(t, err)
			require.InDelta(t, tc.wantValue, got.Value, 0.001)
			require.Equal(t, tc.wantCount, got.Count)
		})
	}
}

func TestAggregateUnknownOp(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Aggregate(context.Background(), buildingModel.AggregateQuery{Op: "median"})
	require.Error(t, err)
}
