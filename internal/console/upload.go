package console

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/client"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/validation"
)

// SetDraft replaces the upload form.
func (c *Console) SetDraft(d Draft) { c.draft = d }

// Draft returns the current upload form.
func (c *Console) Draft() Draft { return c.draft }

// Validate checks the draft without sending it.
func (c *Console) Validate() *validation.Error {
	d := c.draft
	return validation.CheckUpload(validation.Upload{
		Semester: d.Form.Semester,
		Type:     d.Form.Type,
		Subject:  d.Form.Subject,
		Year:     d.Form.Year,
		HasFile:  d.Content != nil && d.Filename != "",
		MimeType: d.MimeType,
		Size:     d.Size,
	}, c.maxSize)
}

// Submit validates and uploads the draft. The form is reset on success and kept
// as is on failure so the administrator can correct it.
func (c *Console) Submit(ctx context.Context) (*models.File, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if verr := c.Validate(); verr != nil {
		return nil, verr
	}
	if _, err := c.draft.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("lecture du fichier : %w", err)
	}
	file, err := c.api.Upload(ctx, client.UploadRequest{
		Form:     c.draft.Form,
		Filename: c.draft.Filename,
		Content:  c.draft.Content,
	})
	if err != nil {
		c.logger.Debug("upload failed", zap.String("file", c.draft.Filename), zap.Error(err))
		return nil, err
	}
	c.draft = Draft{}
	return file, nil
}
