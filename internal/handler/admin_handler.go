package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/service"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/response"
)

type adminAuthenticator interface {
	Login(ctx context.Context, req dto.LoginRequest) (*models.AdminSession, error)
}

type statsService interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Export(ctx context.Context, format string) (*service.ExportedReport, error)
}

// AdminHandler exposes admin login and statistics.
type AdminHandler struct {
	auth  adminAuthenticator
	stats statsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(auth adminAuthenticator, stats statsService) *AdminHandler {
	return &AdminHandler{auth: auth, stats: stats}
}

// Login godoc
// @Summary Open an admin session
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Admin password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "mot de passe requis"))
		return
	}
	req.IP = c.ClientIP()

	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Stats godoc
// @Summary Archive statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportStats godoc
// @Summary Export archive statistics
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} binary
// @Router /admin/stats/export [get]
func (h *AdminHandler) ExportStats(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	report, err := h.stats.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Data)
}
