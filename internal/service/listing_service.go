package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/repository"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/export"
)

const (
	facetsCacheKey  = "listing:facets"
	defaultPageSize = 20
	maxPageSize     = 100
)

// TeacherSource supplies the read-only teacher catalog.
type TeacherSource interface {
	All(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// SearchRequest bundles a listing query.
type SearchRequest struct {
	Criteria models.FilterCriteria
	Sort     models.SortOption
	Page     int
	PageSize int
}

// ListingServiceConfig carries listing tuning values.
type ListingServiceConfig struct {
	Prices    PriceDefaults
	FacetsTTL time.Duration
}

// ListingService serves filtered, sorted and paginated teacher listings.
type ListingService struct {
	source    TeacherSource
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    ListingServiceConfig

	mu      sync.RWMutex
	catalog []models.Teacher
	loaded  bool
}

// NewListingService constructs a ListingService.
func NewListingService(source TeacherSource, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ListingServiceConfig) *ListingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prices == (PriceDefaults{}) {
		cfg.Prices = DefaultPriceDefaults
	}
	return &ListingService{
		source:    source,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// Load reads and validates the catalog. It fails on records breaking the
// listing invariants (unique id, price >= 0, rating within 0..5).
func (s *ListingService) Load(ctx context.Context) error {
	teachers, err := s.source.All(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher catalog")
	}
	if err := s.validateCatalog(teachers); err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = teachers
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("teacher catalog loaded", zap.Int("teachers", len(teachers)))
	return nil
}

func (s *ListingService) validateCatalog(teachers []models.Teacher) error {
	seen := make(map[string]struct{}, len(teachers))
	for i := range teachers {
		t := &teachers[i]
		if err := s.validator.Struct(t); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("invalid teacher record %q", t.ID))
		}
		if _, dup := seen[t.ID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate teacher id %q", t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func (s *ListingService) snapshot(ctx context.Context) ([]models.Teacher, error) {
	s.mu.RLock()
	if s.loaded {
		catalog := s.catalog
		s.mu.RUnlock()
		return catalog, nil
	}
	s.mu.RUnlock()

	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, nil
}

// DefaultCriteria returns the criteria applied when none are supplied.
func (s *ListingService) DefaultCriteria() models.FilterCriteria {
	return DefaultCriteria(s.config.Prices)
}

// Search filters, orders and paginates the catalog.
func (s *ListingService) Search(ctx context.Context, req SearchRequest) ([]models.Teacher, *models.Pagination, error) {
	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	matched := SortTeachers(FilterTeachers(catalog, req.Criteria), req.Sort)
	s.metrics.RecordListingSearch(len(matched))

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	items := []models.Teacher{}
	if page-1 < (len(matched)+size-1)/size {
		start := (page - 1) * size
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[start:end]
	}

	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}, nil
}

// Facets returns the selectable subjects and cities. The second result
// reports whether the value came from cache.
func (s *ListingService) Facets(ctx context.Context) (models.Facets, bool, error) {
	var cached models.Facets
	if s.cache.Get(ctx, facetsCacheKey, &cached) {
		return cached, true, nil
	}

	catalog, err := s.snapshot(ctx)
	if err != nil {
		return models.Facets{}, false, err
	}
	facets := ComputeAvailableFacets(catalog)
	s.cache.Set(ctx, facetsCacheKey, facets, s.config.FacetsTTL)
	return facets, false, nil
}

// Get returns a single teacher profile.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.source.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Export renders every teacher matching the request as a downloadable file.
// Pagination fields of req are ignored.
func (s *ListingService) Export(ctx context.Context, req SearchRequest, format export.Format) ([]byte, string, error) {
	catalog, err := s.snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	matched := SortTeachers(FilterTeachers(catalog, req.Criteria), req.Sort)

	body, err := export.RendererFor(format).Render(listingDataset(matched), "FindMyTeacher listings")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return body, "teachers." + string(format), nil
}

var listingExportHeaders = []string{"ID", "Name", "Subject", "City", "Price", "Rating", "Reviews"}

func listingDataset(teachers []models.Teacher) export.Dataset {
	rows := make([]map[string]string, 0, len(teachers))
	for _, t := range teachers {
		price := strconv.FormatFloat(t.Price, 'f', -1, 64)
		if t.PriceUnit != "" {
			price += "/" + t.PriceUnit
		}
		rows = append(rows, map[string]string{
			"ID":      t.ID,
			"Name":    t.Name,
			"Subject": t.Subject,
			"City":    t.City,
			"Price":   price,
			"Rating":  strconv.FormatFloat(t.Rating, 'f', 1, 64),
			"Reviews": strconv.Itoa(t.Reviews),
		})
	}
	return export.Dataset{Headers: listingExportHeaders, Rows: rows}
}
