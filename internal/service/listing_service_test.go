package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/repository"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/export"
)

type fakeTeacherSource struct {
	teachers []models.Teacher
	err      error
	calls    int
}

func (f *fakeTeacherSource) All(ctx context.Context) ([]models.Teacher, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Teacher(nil), f.teachers...), nil
}

func (f *fakeTeacherSource) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.teachers {
		if t.ID == id {
			teacher := t
			return &teacher, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	sets    int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func newTestListingService(source TeacherSource, cache *CacheService) *ListingService {
	return NewListingService(source, cache, NewMetricsService(), nil, nil, ListingServiceConfig{})
}

func TestListingServiceSearchDefaults(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)

	items, pagination, err := svc.Search(context.Background(), SearchRequest{Criteria: svc.DefaultCriteria()})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "6"}, ids(items))
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: defaultPageSize, TotalCount: 5}, pagination)
}

func TestListingServiceSearchSortAndPaginate(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)
	req := SearchRequest{Criteria: svc.DefaultCriteria(), Sort: models.SortPriceLow, Page: 2, PageSize: 2}

	items, pagination, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "4"}, ids(items))
	assert.Equal(t, 5, pagination.TotalCount)

	req.Page = 9
	items, _, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	req.Page, req.PageSize = 0, 1000
	_, pagination, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, maxPageSize, pagination.PageSize)
}

func TestListingServiceSearchHugePage(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, 3} {
		req := SearchRequest{Criteria: svc.DefaultCriteria(), Page: page, PageSize: 20}
		var (
			items      []models.Teacher
			pagination *models.Pagination
			err        error
		)
		require.NotPanics(t, func() {
			items, pagination, err = svc.Search(context.Background(), req)
		})
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, page, pagination.Page)
		assert.Equal(t, 5, pagination.TotalCount)
	}
}

func TestListingServiceLoadsCatalogOnce(t *testing.T) {
	source := &fakeTeacherSource{teachers: sampleCatalog()}
	svc := newTestListingService(source, nil)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Search(context.Background(), SearchRequest{Criteria: svc.DefaultCriteria()})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.calls)
}

func TestListingServiceLoadRejectsInvalidCatalog(t *testing.T) {
	dup := append(sampleCatalog(), models.Teacher{ID: "1", Name: "Clone", Subject: "Art", City: "Austin", Price: 10})
	err := newTestListingService(&fakeTeacherSource{teachers: dup}, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Contains(t, err.Error(), "duplicate")

	bad := []models.Teacher{{ID: "9", Name: "Bad", Subject: "Art", City: "Austin", Price: -1, Rating: 4}}
	err = newTestListingService(&fakeTeacherSource{teachers: bad}, nil).Load(context.Background())
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	rating := []models.Teacher{{ID: "9", Name: "Bad", Subject: "Art", City: "Austin", Price: 1, Rating: 6}}
	err = newTestListingService(&fakeTeacherSource{teachers: rating}, nil).Load(context.Background())
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestListingServiceSourceFailure(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{err: errors.New("db down")}, nil)
	_, _, err := svc.Search(context.Background(), SearchRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestListingServiceFacetsUsesCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	source := &fakeTeacherSource{teachers: sampleCatalog()}
	svc := NewListingService(source, cache, metrics, nil, nil, ListingServiceConfig{FacetsTTL: time.Minute})

	facets, hit, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, ComputeAvailableFacets(sampleCatalog()), facets)
	assert.Equal(t, 1, repo.sets)

	cached, hit, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, facets, cached)
	assert.Equal(t, 1, source.calls)
}

func TestListingServiceFacetsFallsBackWhenCacheFails(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis unavailable")
	cache := NewCacheService(repo, nil, 0, nil, true)
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, cache)

	facets, hit, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{models.MatchAll, "Austin", "Boston", "Chicago", "Miami"}, facets.Cities)
}

func TestListingServiceGet(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)

	teacher, err := svc.Get(context.Background(), " 2 ")
	require.NoError(t, err)
	assert.Equal(t, "Ana Diaz", teacher.Name)

	_, err = svc.Get(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	broken := newTestListingService(&fakeTeacherSource{err: errors.New("timeout")}, nil)
	_, err = broken.Get(context.Background(), "1")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestListingServiceExportCSV(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)
	criteria := svc.DefaultCriteria()
	criteria.City = "Boston"

	body, filename, err := svc.Export(context.Background(), SearchRequest{Criteria: criteria, Sort: models.SortRating, Page: 5, PageSize: 1}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "teachers.csv", filename)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus every match regardless of pagination")
	assert.Equal(t, listingExportHeaders, records[0])
	assert.Equal(t, "Sophie Bennett", records[1][1])
	assert.Equal(t, "Emily Carter", records[2][1])
	assert.Equal(t, "4.6", records[1][5])
}

func TestListingServiceExportPDF(t *testing.T) {
	svc := newTestListingService(&fakeTeacherSource{teachers: sampleCatalog()}, nil)
	body, filename, err := svc.Export(context.Background(), SearchRequest{Criteria: svc.DefaultCriteria()}, export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "teachers.pdf", filename)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestListingServiceWithSeedRepository(t *testing.T) {
	raw := []byte(`[
		{"id":"1","name":"Robert Lee","subject":"Mathematics","city":"Austin","price":40,"rating":4.8,"reviews":124},
		{"id":"2","name":"Ana Diaz","subject":"Physics","city":"Austin","price":60,"rating":4.9,"reviews":87}
	]`)
	repo, err := repository.NewSeedTeacherRepository(raw)
	require.NoError(t, err)
	svc := newTestListingService(repo, nil)

	criteria := svc.DefaultCriteria()
	criteria.Subject = "Mathematics"
	items, _, err := svc.Search(context.Background(), SearchRequest{Criteria: criteria})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(items))
}
