package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/validation"
)

// UploadRequest is a document submitted from the admin console.
type UploadRequest struct {
	Form     dto.UploadForm
	Filename string
	Content  io.Reader
}

// Login opens an admin session and keeps its token for later admin calls.
func (c *Client) Login(ctx context.Context, password string) (*models.AdminSession, error) {
	var session models.AdminSession
	if err := c.callJSON(ctx, http.MethodPost, "/admin/login", dto.LoginRequest{Password: password}, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Logout forgets the admin token.
func (c *Client) Logout() {
	c.SetToken("")
}

// Upload sends a PDF with its hierarchy fields as multipart/form-data.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*models.File, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, field := range []struct{ name, value string }{
		{"semester", req.Form.Semester},
		{"type", req.Form.Type},
		{"subject", req.Form.Subject},
		{"year", req.Form.Year},
	} {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, decodeError(err)
		}
	}
	if req.Content != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf"; filename=%q`, req.Filename))
		header.Set("Content-Type", validation.PDFMimeType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, decodeError(err)
		}
		if _, err := io.Copy(part, req.Content); err != nil {
			return nil, &RequestError{Kind: KindNetwork, Message: "Lecture du fichier impossible : " + err.Error(), Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, decodeError(err)
	}

	var file models.File
	if err := c.call(ctx, http.MethodPost, "/upload", body, w.FormDataContentType(), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListAdminFiles returns every active file.
func (c *Client) ListAdminFiles(ctx context.Context) ([]models.File, error) {
	return NewQuery[[]models.File]("/admin/files").Fetch(ctx, c)
}

// UpdateFile edits a file's name or position in the hierarchy.
func (c *Client) UpdateFile(ctx context.Context, id string, req dto.UpdateFileRequest) (*models.File, error) {
	var file models.File
	if err := c.callJSON(ctx, http.MethodPut, "/files/"+escape(id), req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFile removes a file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/files/"+escape(id), nil, "", nil)
}

// Stats returns archive statistics.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := NewQuery[models.Stats]("/admin/stats").Fetch(ctx, c)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ExportStats streams a statistics report in format into w and returns its file name.
func (c *Client) ExportStats(ctx context.Context, format string, w io.Writer) (string, error) {
	res, err := c.send(ctx, http.MethodGet, "/admin/stats/export?format="+url.QueryEscape(format), nil, "")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if _, err := io.Copy(w, res.Body); err != nil {
		return "", transportError(err)
	}
	return attachmentName(res.Header.Get("Content-Disposition"), "archive-stats."+format), nil
}
