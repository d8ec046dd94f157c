package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/service"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/export"
)

type fakeListingSrv struct {
	teachers   []models.Teacher
	pagination *models.Pagination
	facets     models.Facets
	facetsHit  bool
	teacher    *models.Teacher
	err        error

	lastSearch service.SearchRequest
	lastFormat export.Format
	lastID     string
}

func (f *fakeListingSrv) DefaultCriteria() models.FilterCriteria {
	return service.DefaultCriteria(service.DefaultPriceDefaults)
}

func (f *fakeListingSrv) Search(_ context.Context, req service.SearchRequest) ([]models.Teacher, *models.Pagination, error) {
	f.lastSearch = req
	return f.teachers, f.pagination, f.err
}

func (f *fakeListingSrv) Facets(context.Context) (models.Facets, bool, error) {
	return f.facets, f.facetsHit, f.err
}

func (f *fakeListingSrv) Get(_ context.Context, id string) (*models.Teacher, error) {
	f.lastID = id
	return f.teacher, f.err
}

func (f *fakeListingSrv) Export(_ context.Context, req service.SearchRequest, format export.Format) ([]byte, string, error) {
	f.lastSearch = req
	f.lastFormat = format
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("ID,Name\n1,Robert Lee\n"), "teachers." + string(format), nil
}

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestListingHandlerListDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeListingSrv{
		teachers:   []models.Teacher{{ID: "1", Name: "Robert Lee"}},
		pagination: &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1},
	}
	handler := NewListingHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.DefaultCriteria(service.DefaultPriceDefaults), srv.lastSearch.Criteria)
	assert.Equal(t, models.SortNone, srv.lastSearch.Sort)
	assert.Equal(t, 1, srv.lastSearch.Page)
	assert.Equal(t, 20, srv.lastSearch.PageSize)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
	assert.Contains(t, envelope.Meta, "criteria")
	var teachers []models.Teacher
	require.NoError(t, json.Unmarshal(envelope.Data, &teachers))
	assert.Equal(t, "Robert Lee", teachers[0].Name)
}

func TestListingHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeListingSrv{teachers: []models.Teacher{}, pagination: &models.Pagination{}}
	handler := NewListingHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers?q=+ana+&subject=Physics&city=Austin&priceMin=20&priceMax=80.5&sort=rating&page=2&limit=5", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FilterCriteria{Query: "ana", Subject: "Physics", City: "Austin", PriceMin: 20, PriceMax: 80.5}, srv.lastSearch.Criteria)
	assert.Equal(t, models.SortRating, srv.lastSearch.Sort)
	assert.Equal(t, 2, srv.lastSearch.Page)
	assert.Equal(t, 5, srv.lastSearch.PageSize)
	assert.Equal(t, "rating", decodeEnvelope(t, rec).Meta["sort"])
}

func TestListingHandlerListIgnoresMalformedNumbers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeListingSrv{pagination: &models.Pagination{}}
	handler := NewListingHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers?priceMin=cheap&priceMax=NaN&page=x&limit=Inf&sort=popular", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, srv.lastSearch.Criteria.PriceMin)
	assert.Equal(t, 100.0, srv.lastSearch.Criteria.PriceMax)
	assert.Equal(t, 0, srv.lastSearch.Page)
	assert.Equal(t, 0, srv.lastSearch.PageSize)
	assert.Equal(t, models.SortNone, srv.lastSearch.Sort)
}

func TestListingHandlerListServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewListingHandler(&fakeListingSrv{err: appErrors.ErrInternal})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers", nil)

	handler.List(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestListingHandlerFacets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewListingHandler(&fakeListingSrv{
		facets:    models.Facets{Subjects: []string{"all", "Mathematics"}, Cities: []string{"all", "Austin"}},
		facetsHit: true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/facets", nil)

	handler.Facets(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var facets models.Facets
	require.NoError(t, json.Unmarshal(envelope.Data, &facets))
	assert.Equal(t, []string{"all", "Mathematics"}, facets.Subjects)
}

func TestListingHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeListingSrv{teacher: &models.Teacher{ID: "2", Name: "Ana Diaz"}}
	handler := NewListingHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/2", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", srv.lastID)
}

func TestListingHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewListingHandler(&fakeListingSrv{err: appErrors.Clone(appErrors.ErrNotFound, "teacher not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "teacher not found", decodeEnvelope(t, rec).Error.Message)
}

func TestListingHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeListingSrv{}
	handler := NewListingHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/export?city=Austin", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatCSV, srv.lastFormat)
	assert.Equal(t, "Austin", srv.lastSearch.Criteria.City)
	assert.Equal(t, `attachment; filename="teachers.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID,Name\n1,Robert Lee\n", rec.Body.String())
}

func TestListingHandlerExportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewListingHandler(&fakeListingSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/export?format=xlsx", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
