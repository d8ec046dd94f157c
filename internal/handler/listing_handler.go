package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/findmyteacher-api/internal/middleware"
	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/service"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/export"
	"github.com/noah-isme/findmyteacher-api/pkg/response"
)

type listingService interface {
	DefaultCriteria() models.FilterCriteria
	Search(ctx context.Context, req service.SearchRequest) ([]models.Teacher, *models.Pagination, error)
	Facets(ctx context.Context) (models.Facets, bool, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
	Export(ctx context.Context, req service.SearchRequest, format export.Format) ([]byte, string, error)
}

// ListingHandler exposes the teacher marketplace listing.
type ListingHandler struct {
	listings listingService
}

// NewListingHandler constructs a listing handler.
func NewListingHandler(listings listingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List godoc
// @Summary Search teachers
// @Tags Teachers
// @Produce json
// @Param q query string false "Case-insensitive match on name, subject or city"
// @Param subject query string false "Exact subject or 'all'"
// @Param city query string false "Exact city or 'all'"
// @Param priceMin query number false "Lower price bound (inclusive)"
// @Param priceMax query number false "Upper price bound (inclusive)"
// @Param sort query string false "Ordering (price_low,price_high,rating,reviews)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *ListingHandler) List(c *gin.Context) {
	start := time.Now()
	req := h.searchRequest(c)

	teachers, pagination, err := h.listings.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "criteria", service.NormalizeCriteria(req.Criteria))
	if req.Sort != models.SortNone {
		middleware.SetMeta(c, "sort", req.Sort)
	}
	response.JSON(c, http.StatusOK, teachers, pagination, middleware.ResponseMeta(c, start))
}

// Facets godoc
// @Summary List selectable subjects and cities
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers/facets [get]
func (h *ListingHandler) Facets(c *gin.Context) {
	start := time.Now()
	facets, cacheHit, err := h.listings.Facets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, facets, nil, middleware.ResponseMeta(c, start))
}

// Get godoc
// @Summary Get teacher profile
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	teacher, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Export godoc
// @Summary Download the filtered listing
// @Tags Teachers
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param q query string false "Case-insensitive match on name, subject or city"
// @Param subject query string false "Exact subject or 'all'"
// @Param city query string false "Exact city or 'all'"
// @Param priceMin query number false "Lower price bound (inclusive)"
// @Param priceMax query number false "Upper price bound (inclusive)"
// @Param sort query string false "Ordering (price_low,price_high,rating,reviews)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /teachers/export [get]
func (h *ListingHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}
	body, filename, err := h.listings.Export(c.Request.Context(), h.searchRequest(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, format.ContentType(), body)
}

// searchRequest reads listing criteria from the query string. Missing or
// malformed values fall back to the service defaults.
func (h *ListingHandler) searchRequest(c *gin.Context) service.SearchRequest {
	criteria := h.listings.DefaultCriteria()
	criteria.Query = strings.TrimSpace(c.Query("q"))
	if subject := strings.TrimSpace(c.Query("subject")); subject != "" {
		criteria.Subject = subject
	}
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		criteria.City = city
	}
	if v, ok := queryFloat(c, "priceMin"); ok {
		criteria.PriceMin = v
	}
	if v, ok := queryFloat(c, "priceMax"); ok {
		criteria.PriceMax = v
	}

	req := service.SearchRequest{
		Criteria: criteria,
		Sort:     models.ParseSortOption(strings.TrimSpace(c.Query("sort"))),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}
	return req
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
