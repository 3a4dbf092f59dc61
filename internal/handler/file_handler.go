package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/service"
	"github.com/noah-isme/univ-archive/internal/validation"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/response"
)

type fileService interface {
	Upload(ctx context.Context, upload service.FileUpload) (*models.File, error)
	ListByYear(ctx context.Context, yearID string) ([]models.File, error)
	ListAdmin(ctx context.Context, query dto.FileListQuery) ([]models.File, *models.Pagination, error)
	Update(ctx context.Context, id string, req dto.UpdateFileRequest) (*models.File, error)
	Delete(ctx context.Context, id string) error
	Open(ctx context.Context, id, disposition string) (*service.FileContent, error)
	Share(ctx context.Context, id string) (*models.ShareLink, error)
	OpenShared(ctx context.Context, token string) (*service.FileContent, error)
}

// FileHandler manages file endpoints.
type FileHandler struct {
	service     fileService
	maxFileSize int64
}

// NewFileHandler constructs the handler. maxFileSize bounds the multipart body.
func NewFileHandler(service fileService, maxFileSize int64) *FileHandler {
	if maxFileSize <= 0 {
		maxFileSize = validation.MaxUploadSize
	}
	return &FileHandler{service: service, maxFileSize: maxFileSize}
}

// ListByYear godoc
// @Summary List files of a year
// @Tags Files
// @Produce json
// @Param yearId path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /years/{yearId}/files [get]
func (h *FileHandler) ListByYear(c *gin.Context) {
	files, err := h.service.ListByYear(c.Request.Context(), c.Param("yearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// View godoc
// @Summary Stream a file inline
// @Tags Files
// @Produce application/pdf
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Success 302
// @Router /files/{id}/view [get]
func (h *FileHandler) View(c *gin.Context) {
	h.serve(c, service.DispositionInline)
}

// Download godoc
// @Summary Download a file
// @Tags Files
// @Produce application/pdf
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Success 302
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	h.serve(c, service.DispositionAttachment)
}

func (h *FileHandler) serve(c *gin.Context, disposition string) {
	content, err := h.service.Open(c.Request.Context(), c.Param("id"), disposition)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeContent(c, content)
}

// Share godoc
// @Summary Create a signed share link
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/share [get]
func (h *FileHandler) Share(c *gin.Context) {
	link, err := h.service.Share(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Shared godoc
// @Summary Download a file through a share link
// @Tags Files
// @Produce application/pdf
// @Param token path string true "Share token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /shared/{token} [get]
func (h *FileHandler) Shared(c *gin.Context) {
	content, err := h.service.OpenShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeContent(c, content)
}

// Upload godoc
// @Summary Upload a PDF document
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param semester formData string true "Semester name"
// @Param type formData string true "Document type"
// @Param subject formData string true "Subject"
// @Param year formData string true "Year"
// @Param pdf formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+1<<20)
	var form dto.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, h.uploadBindError(err))
		return
	}
	upload := service.FileUpload{Form: form}

	fileHeader, err := c.FormFile("pdf")
	if err == nil {
		src, openErr := fileHeader.Open()
		if openErr != nil {
			response.Error(c, appErrors.Internal(openErr, "échec de l'ouverture du fichier"))
			return
		}
		defer src.Close()

		reader, ok := src.(io.ReadSeeker)
		if !ok {
			buf, readErr := io.ReadAll(src)
			if readErr != nil {
				response.Error(c, appErrors.Internal(readErr, "échec de la lecture du fichier"))
				return
			}
			reader = bytes.NewReader(buf)
		}
		upload.Filename = fileHeader.Filename
		upload.Size = fileHeader.Size
		upload.MimeType = fileHeader.Header.Get("Content-Type")
		upload.Content = reader
	} else if tooLarge(err) {
		response.Error(c, h.uploadBindError(err))
		return
	}

	file, err := h.service.Upload(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// ListAdmin godoc
// @Summary List every active file
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search in name or subject"
// @Param semester query string false "Semester name"
// @Param type query string false "Type name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/files [get]
func (h *FileHandler) ListAdmin(c *gin.Context) {
	var query dto.FileListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "paramètres de recherche invalides"))
		return
	}
	files, pagination, err := h.service.ListAdmin(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, pagination)
}

// Update godoc
// @Summary Update file metadata
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Param payload body dto.UpdateFileRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /files/{id} [put]
func (h *FileHandler) Update(c *gin.Context) {
	var req dto.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "modification invalide"))
		return
	}
	file, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// Delete godoc
// @Summary Delete a file
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 204
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func writeContent(c *gin.Context, content *service.FileContent) {
	if content.RedirectURL != "" {
		c.Redirect(http.StatusFound, content.RedirectURL)
		return
	}
	defer content.Reader.Close() //nolint:errcheck
	response.Document(c, content.Disposition, content.Name, content.MimeType, content.Size, content.Reader)
}

func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

func (h *FileHandler) uploadBindError(err error) error {
	if tooLarge(err) {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, validation.TooLargeMessage(h.maxFileSize))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "formulaire d'envoi invalide")
}
