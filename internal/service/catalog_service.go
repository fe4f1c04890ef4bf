package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// SortBy is a product listing order.
type SortBy string

const (
	SortFeatured  SortBy = "featured"
	SortPriceLow  SortBy = "priceLow"
	SortPriceHigh SortBy = "priceHigh"
	SortNewest    SortBy = "newest"
	SortTopRated  SortBy = "topRated"

	// AllCategories lists the whole catalog.
	AllCategories = "all"

	relatedLimit  = 4
	cacheTTL      = time.Minute
	warmupWorkers = 8
)

// ProductQuery holds the listing filters. All predicates are ANDed; a false
// flag imposes no constraint and MaxPrice <= 0 means no upper bound.
type ProductQuery struct {
	Location   entity.Locality
	SortBy     SortBy
	MinPrice   float64
	MaxPrice   float64
	Organic    bool
	Premium    bool
	BestSeller bool
	New        bool
	Search     string
}

type CatalogService struct {
	catalogRepo repository.CatalogRepository
	rdb         *redis.Client
}

// NewCatalogService creates a new instance of CatalogService. rdb may be nil,
// in which case product details are always read from the repository.
func NewCatalogService(catalogRepo repository.CatalogRepository, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		rdb:         rdb,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	return s.catalogRepo.GetCategoryBySlug(ctx, slug)
}

// ListByCategory filters and sorts the products of a category. An unknown
// category yields an empty list.
func (s *CatalogService) ListByCategory(ctx context.Context, slug string, q ProductQuery) ([]entity.Product, error) {
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}

	if slug != AllCategories {
		category, err := s.catalogRepo.GetCategoryBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return []entity.Product{}, nil
			}
			return nil, err
		}
		products = filter(products, func(p entity.Product) bool { return p.CategoryID == category.ID })
	}

	products = FilterProducts(products, q)
	SortProducts(products, q.SortBy)
	return products, nil
}

// Search matches term against name and description, case-insensitively, in
// catalog order. limit <= 0 returns every match.
func (s *CatalogService) Search(ctx context.Context, term string, limit int) ([]entity.Product, error) {
	if strings.TrimSpace(term) == "" {
		return []entity.Product{}, nil
	}
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	matches := filter(products, func(p entity.Product) bool { return matchesSearch(p, term) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]entity.Product, error) {
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return filter(products, func(p entity.Product) bool { return p.IsFeatured }), nil
}

func (s *CatalogService) BestSellers(ctx context.Context) ([]entity.Product, error) {
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return filter(products, func(p entity.Product) bool { return p.IsBestSeller }), nil
}

// GetProductBySlug returns the product detail, read through the redis cache
// when one is configured.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*entity.ProductWithCategory, error) {
	key := productCacheKey(slug)
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			var product entity.ProductWithCategory
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
			logger.Warn().Msgf("Discarding undecodable cache entry for product %s", slug)
		case errors.Is(err, redis.Nil):
		default:
			// A cache outage degrades to repository reads.
			logger.Error().Err(err).Msgf("Error getting product %s from cache", slug)
		}
	}

	product, err := s.loadProductDetail(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.cacheProduct(ctx, product)
	return product, nil
}

// Related returns up to four other products of the same category.
func (s *CatalogService) Related(ctx context.Context, slug string) ([]entity.Product, error) {
	product, err := s.catalogRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	related := filter(products, func(p entity.Product) bool {
		return p.ID != product.ID && p.CategoryID == product.CategoryID
	})
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return related, nil
}

// PreWarmCache loads every product detail into the cache.
func (s *CatalogService) PreWarmCache(ctx context.Context) (int, error) {
	if s.rdb == nil {
		return 0, nil
	}
	products, err := s.catalogRepo.ListProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupWorkers)
	for _, p := range products {
		slug := p.Slug
		g.Go(func() error {
			product, err := s.loadProductDetail(ctx, slug)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(product)
			if err != nil {
				return err
			}
			return s.rdb.Set(ctx, productCacheKey(slug), payload, cacheTTL).Err()
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Error pre-warming product cache")
		return 0, err
	}
	return len(products), nil
}

// EvictProducts drops the cached details of the given products so that the
// next read shows current stock.
func (s *CatalogService) EvictProducts(ctx context.Context, productIDs []int) error {
	if s.rdb == nil || len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		product, err := s.catalogRepo.GetProduct(ctx, id)
		if err != nil {
			logger.Warn().Err(err).Msgf("Skipping cache eviction for product %d", id)
			continue
		}
		keys = append(keys, productCacheKey(product.Slug))
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *CatalogService) loadProductDetail(ctx context.Context, slug string) (*entity.ProductWithCategory, error) {
	product, err := s.catalogRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &entity.ProductWithCategory{Product: *product}
	category, err := s.catalogRepo.GetCategory(ctx, product.CategoryID)
	switch {
	case err == nil:
		detail.CategoryName = category.Name
		detail.CategorySlug = category.Slug
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return nil, err
	}
	return detail, nil
}

func (s *CatalogService) cacheProduct(ctx context.Context, product *entity.ProductWithCategory) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, productCacheKey(product.Slug), payload, cacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting product %s in cache", product.Slug)
	}
}

// FilterProducts applies the locality, price, flag and search predicates.
func FilterProducts(products []entity.Product, q ProductQuery) []entity.Product {
	location := q.Location
	if location == "" {
		location = entity.LocalityBoth
	}
	return filter(products, func(p entity.Product) bool {
		price := p.EffectivePrice()
		switch {
		case price < q.MinPrice:
			return false
		case q.MaxPrice > 0 && price > q.MaxPrice:
			return false
		case !p.City.Matches(location):
			return false
		case q.Organic && !p.IsOrganic:
			return false
		case q.Premium && !p.IsPremium:
			return false
		case q.BestSeller && !p.IsBestSeller:
			return false
		case q.New && !p.IsNew:
			return false
		case q.Search != "" && !matchesSearch(p, q.Search):
			return false
		}
		return true
	})
}

// SortProducts orders products in place. Ties keep their catalog order.
func SortProducts(products []entity.Product, by SortBy) {
	var less func(a, b entity.Product) bool
	switch by {
	case SortPriceLow:
		less = func(a, b entity.Product) bool { return a.EffectivePrice() < b.EffectivePrice() }
	case SortPriceHigh:
		less = func(a, b entity.Product) bool { return a.EffectivePrice() > b.EffectivePrice() }
	case SortNewest:
		less = func(a, b entity.Product) bool { return a.IsNew && !b.IsNew }
	case SortTopRated:
		less = func(a, b entity.Product) bool { return a.Ratings > b.Ratings }
	default:
		less = func(a, b entity.Product) bool { return a.IsFeatured && !b.IsFeatured }
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func matchesSearch(p entity.Product, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func filter(products []entity.Product, keep func(entity.Product) bool) []entity.Product {
	out := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func productCacheKey(slug string) string {
	return fmt.Sprintf("product:%s", slug)
}
