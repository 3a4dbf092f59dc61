package response

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Document streams a stored file with the given disposition ("inline" or
// "attachment"). A non-positive size streams without Content-Length.
func Document(c *gin.Context, disposition, name, contentType string, size int64, body io.Reader) {
	c.Header("Content-Disposition", ContentDisposition(disposition, name))
	c.Header("Cache-Control", "private, max-age=0")
	c.Header("X-Content-Type-Options", "nosniff")
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, contentType, body, nil)
}

// Attachment sends a generated report as a download.
func Attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", ContentDisposition("attachment", name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, data)
}

// ContentDisposition builds the header value, falling back to a generic name
// when the original one cannot be encoded.
func ContentDisposition(disposition, name string) string {
	if value := mime.FormatMediaType(disposition, map[string]string{"filename": name}); value != "" {
		return value
	}
	return disposition + "; filename=\"document.pdf\""
}
