package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/middleware"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/pkg/response"
)

type catalogService interface {
	ListSemesters(ctx context.Context) ([]models.Semester, bool, error)
	ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, bool, error)
	ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, bool, error)
	ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, bool, error)
}

// CatalogHandler serves the browsing hierarchy.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CatalogHandler) ListSemesters(c *gin.Context) {
	items, hit, err := h.service.ListSemesters(c.Request.Context())
	respondList(c, items, hit, err)
}

// ListTypes godoc
// @Summary List document types of a semester
// @Tags Catalog
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/types [get]
func (h *CatalogHandler) ListTypes(c *gin.Context) {
	items, hit, err := h.service.ListTypes(c.Request.Context(), c.Param("semesterId"))
	respondList(c, items, hit, err)
}

// ListSubjects godoc
// @Summary List subjects of a semester and type
// @Tags Catalog
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param typeId path string true "Type ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/types/{typeId}/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	items, hit, err := h.service.ListSubjects(c.Request.Context(), c.Param("semesterId"), c.Param("typeId"))
	respondList(c, items, hit, err)
}

// ListYears godoc
// @Summary List years of a subject
// @Tags Catalog
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param typeId path string true "Type ID"
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/types/{typeId}/subjects/{subjectId}/years [get]
func (h *CatalogHandler) ListYears(c *gin.Context) {
	items, hit, err := h.service.ListYears(c.Request.Context(), c.Param("semesterId"), c.Param("typeId"), c.Param("subjectId"))
	respondList(c, items, hit, err)
}

func respondList[T any](c *gin.Context, items []T, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordListing(c, hit, len(items))
	response.JSON(c, http.StatusOK, items, nil, middleware.ListingMeta(c))
}
