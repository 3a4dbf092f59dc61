package console

import (
	"context"
	"io"
	"strings"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
)

// Refresh reloads the file listing.
func (c *Console) Refresh(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	files, err := c.api.ListAdminFiles(ctx)
	if err != nil {
		return err
	}
	c.files = files
	if c.pending != "" && c.find(c.pending) < 0 {
		c.pending = ""
	}
	return nil
}

// Files returns the loaded listing, unfiltered.
func (c *Console) Files() []models.File { return c.files }

// SetFilter replaces the search and filter criteria.
func (c *Console) SetFilter(f Filter) { c.filter = f }

// Visible returns the loaded files matching the current filter, in listing order.
// Search is a case-insensitive substring of the name or subject; semester and
// type match exactly.
func (c *Console) Visible() []models.File {
	search := strings.ToLower(strings.TrimSpace(c.filter.Search))
	out := make([]models.File, 0, len(c.files))
	for _, f := range c.files {
		if c.filter.Semester != "" && f.Semester != c.filter.Semester {
			continue
		}
		if c.filter.Type != "" && f.Type != c.filter.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(f.OriginalName), search) &&
			!strings.Contains(strings.ToLower(f.Subject), search) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Edit applies an inline edit and replaces the row in the listing.
func (c *Console) Edit(ctx context.Context, id string, req dto.UpdateFileRequest) (*models.File, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if req.OriginalName != nil {
		name := strings.TrimSpace(*req.OriginalName)
		req.OriginalName = &name
	}
	updated, err := c.api.UpdateFile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if i := c.find(id); i >= 0 {
		c.files[i] = *updated
	}
	return updated, nil
}

// RequestDelete marks id for deletion and waits for confirmation.
func (c *Console) RequestDelete(id string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.find(id) < 0 {
		return ErrUnknownFile
	}
	c.pending = id
	return nil
}

// PendingDelete returns the file awaiting confirmation.
func (c *Console) PendingDelete() (models.File, bool) {
	if i := c.find(c.pending); c.pending != "" && i >= 0 {
		return c.files[i], true
	}
	return models.File{}, false
}

// CancelDelete drops the pending deletion without touching the listing.
func (c *Console) CancelDelete() {
	c.pending = ""
}

// ConfirmDelete deletes the pending file and reloads the listing.
func (c *Console) ConfirmDelete(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if c.pending == "" {
		return ErrNoPendingDelete
	}
	id := c.pending
	if err := c.api.DeleteFile(ctx, id); err != nil {
		return err
	}
	c.pending = ""
	return c.Refresh(ctx)
}

// Stats loads the statistics tab.
func (c *Console) Stats(ctx context.Context) (*models.Stats, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	return c.api.Stats(ctx)
}

// Export writes a statistics report in format to w and returns its file name.
func (c *Console) Export(ctx context.Context, format string, w io.Writer) (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}
	return c.api.ExportStats(ctx, format, w)
}

func (c *Console) find(id string) int {
	for i, f := range c.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}
