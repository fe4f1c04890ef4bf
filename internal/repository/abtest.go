package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

// ABTestRepository keeps experiments, their per-session counters and the
// variant each session was assigned.
type ABTestRepository interface {
	GetTestByName(ctx context.Context, name string) (*entity.ABTest, error)
	// GetOrCreateTest returns the named test, creating it with the single
	// observed variant when it does not exist yet.
	GetOrCreateTest(ctx context.Context, name, variant string) (*entity.ABTest, error)
	RecordImpression(ctx context.Context, testID int, variant, sessionID string) error
	// RecordConversion on a (test, variant, session) without a result row
	// creates the row with one impression and one conversion.
	RecordConversion(ctx context.Context, testID int, variant, sessionID string) error
	ListResults(ctx context.Context, testID int) ([]entity.ABTestResult, error)
	GetAssignment(ctx context.Context, sessionID string) (entity.Assignment, bool, error)
	// SaveAssignment stores a unless the session already has one, and
	// returns whichever assignment is stored.
	SaveAssignment(ctx context.Context, sessionID string, a entity.Assignment) (entity.Assignment, error)
}

type resultKey struct {
	testID    int
	variant   string
	sessionID string
}

type MemoryABTestRepository struct {
	mu           sync.Mutex
	nextTestID   int
	nextResultID int
	tests        map[string]*entity.ABTest
	results      map[resultKey]*entity.ABTestResult
	assignments  map[string]entity.Assignment
	now          func() time.Time
}

func NewMemoryABTestRepository() *MemoryABTestRepository {
	return &MemoryABTestRepository{
		nextTestID:   1,
		nextResultID: 1,
		tests:        make(map[string]*entity.ABTest),
		results:      make(map[resultKey]*entity.ABTestResult),
		assignments:  make(map[string]entity.Assignment),
		now:          time.Now,
	}
}

func (r *MemoryABTestRepository) GetTestByName(ctx context.Context, name string) (*entity.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	test, ok := r.tests[name]
	if !ok {
		return nil, apperror.NotFound("A/B test", nil)
	}
	return copyTest(test), nil
}

func (r *MemoryABTestRepository) GetOrCreateTest(ctx context.Context, name, variant string) (*entity.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if test, ok := r.tests[name]; ok {
		return copyTest(test), nil
	}
	test := &entity.ABTest{
		ID:        r.nextTestID,
		TestName:  name,
		Variants:  []string{variant},
		StartDate: r.now(),
		IsActive:  true,
	}
	r.nextTestID++
	r.tests[name] = test
	return copyTest(test), nil
}

func (r *MemoryABTestRepository) RecordImpression(ctx context.Context, testID int, variant, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result(testID, variant, sessionID, 0).Impressions++
	return nil
}

func (r *MemoryABTestRepository) RecordConversion(ctx context.Context, testID int, variant, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result(testID, variant, sessionID, 1).Conversions++
	return nil
}

// result returns the row for the key, creating it with the given impressions.
func (r *MemoryABTestRepository) result(testID int, variant, sessionID string, impressions int) *entity.ABTestResult {
	key := resultKey{testID: testID, variant: variant, sessionID: sessionID}
	res, ok := r.results[key]
	if !ok {
		res = &entity.ABTestResult{
			ID:          r.nextResultID,
			TestID:      testID,
			VariantName: variant,
			SessionID:   sessionID,
			Impressions: impressions,
		}
		r.nextResultID++
		r.results[key] = res
	}
	return res
}

func (r *MemoryABTestRepository) ListResults(ctx context.Context, testID int) ([]entity.ABTestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var results []entity.ABTestResult
	for _, res := range r.results {
		if res.TestID == testID {
			results = append(results, *res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (r *MemoryABTestRepository) GetAssignment(ctx context.Context, sessionID string) (entity.Assignment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[sessionID]
	if !ok {
		return nil, false, nil
	}
	return copyAssignment(a), true, nil
}

func (r *MemoryABTestRepository) SaveAssignment(ctx context.Context, sessionID string, a entity.Assignment) (entity.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.assignments[sessionID]; ok {
		return copyAssignment(existing), nil
	}
	r.assignments[sessionID] = copyAssignment(a)
	return copyAssignment(a), nil
}

func copyTest(t *entity.ABTest) *entity.ABTest {
	c := *t
	c.Variants = append([]string(nil), t.Variants...)
	return &c
}

func copyAssignment(a entity.Assignment) entity.Assignment {
	c := make(entity.Assignment, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}
