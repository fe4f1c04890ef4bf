package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

func TestRecordImpressionAutoCreatesTest(t *testing.T) {
	repo := repository.NewMemoryABTestRepository()
	svc := NewABTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RecordImpression(ctx, "ctaStyle", "rounded", "s1"))

	test, err := repo.GetTestByName(ctx, "ctaStyle")
	require.NoError(t, err)
	assert.Equal(t, []string{"rounded"}, test.Variants)

	results, err := repo.ListResults(ctx, test.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Impressions)
	assert.Zero(t, results[0].Conversions)
}

func TestRecordConversionRequiresExistingTest(t *testing.T) {
	svc := NewABTestService(repository.NewMemoryABTestRepository())
	ctx := context.Background()

	err := svc.RecordConversion(ctx, "ctaStyle", "rounded", "s1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.RecordImpression(ctx, "ctaStyle", "rounded", "s1"))
	assert.NoError(t, svc.RecordConversion(ctx, "ctaStyle", "rounded", "s1"))
}

func TestTrackingRequiresAllFields(t *testing.T) {
	svc := NewABTestService(repository.NewMemoryABTestRepository())
	ctx := context.Background()

	for _, args := range [][3]string{
		{"", "rounded", "s1"},
		{"ctaStyle", "", "s1"},
		{"ctaStyle", "rounded", " "},
	} {
		assert.ErrorIs(t, svc.RecordImpression(ctx, args[0], args[1], args[2]), apperror.ErrValidation)
		assert.ErrorIs(t, svc.RecordConversion(ctx, args[0], args[1], args[2]), apperror.ErrValidation)
	}
}

func TestAssignIsStablePerSession(t *testing.T) {
	svc := NewABTestService(repository.NewMemoryABTestRepository())
	ctx := context.Background()

	draws := []int{1, 0, 0, 1}
	svc.intn = func(n int) int {
		d := draws[0]
		draws = draws[1:]
		return d
	}

	first, err := svc.Assign(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.Assignment{"productCardStyle": "variant-b", "ctaStyle": "rounded"}, first)

	again, err := svc.Assign(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := svc.Assign(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, entity.Assignment{"productCardStyle": "variant-a", "ctaStyle": "square"}, other)

	_, err = svc.Assign(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAssignDrawsFromDeclaredVariants(t *testing.T) {
	svc := NewABTestService(repository.NewMemoryABTestRepository())
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		a, err := svc.Assign(ctx, string(rune('A'+i)))
		require.NoError(t, err)
		require.Len(t, a, len(Dimensions))
		for _, d := range Dimensions {
			assert.Contains(t, d.Variants, a[d.Name])
			seen[a[d.Name]] = true
		}
	}
	assert.Len(t, seen, 4)
}

func TestReport(t *testing.T) {
	svc := NewABTestService(repository.NewMemoryABTestRepository())
	ctx := context.Background()

	require.NoError(t, svc.RecordImpression(ctx, "productCardStyle", "variant-a", "s1"))
	require.NoError(t, svc.RecordImpression(ctx, "productCardStyle", "variant-a", "s1"))
	require.NoError(t, svc.RecordImpression(ctx, "productCardStyle", "variant-a", "s2"))
	require.NoError(t, svc.RecordConversion(ctx, "productCardStyle", "variant-a", "s2"))
	require.NoError(t, svc.RecordImpression(ctx, "productCardStyle", "variant-b", "s3"))
	// conversion without a prior impression row counts one of each
	require.NoError(t, svc.RecordConversion(ctx, "productCardStyle", "variant-b", "s4"))

	report, err := svc.Report(ctx, "productCardStyle")
	require.NoError(t, err)
	assert.Equal(t, "productCardStyle", report.Test.TestName)
	assert.Equal(t, []entity.VariantStats{
		{VariantName: "variant-a", Sessions: 2, Impressions: 3, Conversions: 1, ConversionRate: 1.0 / 3},
		{VariantName: "variant-b", Sessions: 2, Impressions: 2, Conversions: 1, ConversionRate: 0.5},
	}, report.Variants)

	_, err = svc.Report(ctx, "unknown")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
