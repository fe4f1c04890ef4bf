package service

import (
	"context"
	"math/rand"
	"sort"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

// Dimension is one A/B test axis and the variants a session can land in.
type Dimension struct {
	Name     string
	Variants []string
}

// Dimensions are the tests every new session is assigned to.
var Dimensions = []Dimension{
	{Name: "productCardStyle", Variants: []string{"variant-a", "variant-b"}},
	{Name: "ctaStyle", Variants: []string{"rounded", "square"}},
}

type ABTestService struct {
	abTestRepo repository.ABTestRepository
	dimensions []Dimension
	intn       func(n int) int
}

func NewABTestService(abTestRepo repository.ABTestRepository) *ABTestService {
	return &ABTestService{
		abTestRepo: abTestRepo,
		dimensions: Dimensions,
		intn:       rand.Intn,
	}
}

// Assign returns the session's variants, drawing them uniformly at random on
// the first call and returning the stored draw afterwards.
func (s *ABTestService) Assign(ctx context.Context, sessionID string) (entity.Assignment, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	existing, ok, err := s.abTestRepo.GetAssignment(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting assignment for session %s", sessionID)
		return nil, err
	}
	if ok {
		return existing, nil
	}

	assignment := make(entity.Assignment, len(s.dimensions))
	for _, d := range s.dimensions {
		assignment[d.Name] = d.Variants[s.intn(len(d.Variants))]
	}
	// Concurrent first requests race; the stored draw wins.
	return s.abTestRepo.SaveAssignment(ctx, sessionID, assignment)
}

// RecordImpression counts one view of variant. An unknown test is created on
// the fly with variant as its only known variant.
func (s *ABTestService) RecordImpression(ctx context.Context, testName, variant, sessionID string) error {
	if err := requireTrackingFields(testName, variant, sessionID); err != nil {
		return err
	}
	test, err := s.abTestRepo.GetOrCreateTest(ctx, testName, variant)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting A/B test %s", testName)
		return err
	}
	return s.abTestRepo.RecordImpression(ctx, test.ID, variant, sessionID)
}

// RecordConversion counts one conversion. Unlike impressions it requires the
// test to exist already.
func (s *ABTestService) RecordConversion(ctx context.Context, testName, variant, sessionID string) error {
	if err := requireTrackingFields(testName, variant, sessionID); err != nil {
		return err
	}
	test, err := s.abTestRepo.GetTestByName(ctx, testName)
	if err != nil {
		return err
	}
	return s.abTestRepo.RecordConversion(ctx, test.ID, variant, sessionID)
}

// Report sums the per-session counters of a test by variant. Variants are
// ordered by name.
func (s *ABTestService) Report(ctx context.Context, testName string) (*entity.ABTestReport, error) {
	test, err := s.abTestRepo.GetTestByName(ctx, testName)
	if err != nil {
		return nil, err
	}
	results, err := s.abTestRepo.ListResults(ctx, test.ID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing results for A/B test %s", testName)
		return nil, err
	}

	byVariant := make(map[string]*entity.VariantStats)
	for _, r := range results {
		stats, ok := byVariant[r.VariantName]
		if !ok {
			stats = &entity.VariantStats{VariantName: r.VariantName}
			byVariant[r.VariantName] = stats
		}
		stats.Sessions++
		stats.Impressions += r.Impressions
		stats.Conversions += r.Conversions
	}

	report := &entity.ABTestReport{Test: *test, Variants: make([]entity.VariantStats, 0, len(byVariant))}
	for _, stats := range byVariant {
		if stats.Impressions > 0 {
			stats.ConversionRate = float64(stats.Conversions) / float64(stats.Impressions)
		}
		report.Variants = append(report.Variants, *stats)
	}
	sort.Slice(report.Variants, func(i, j int) bool {
		return report.Variants[i].VariantName < report.Variants[j].VariantName
	})
	return report, nil
}
