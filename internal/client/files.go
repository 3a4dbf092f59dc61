package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/univ-archive/internal/models"
)

// ErrURLUnavailable is returned for a file without an identifier.
var ErrURLUnavailable = errors.New("URL indisponible")

// ViewURL returns the inline view URL of file.
func (c *Client) ViewURL(file models.File) (string, error) {
	if strings.TrimSpace(file.ID) == "" {
		return "", ErrURLUnavailable
	}
	return c.URL(fmt.Sprintf("/files/%s/view", escape(file.ID))), nil
}

// DownloadURL returns the attachment download URL of file.
func (c *Client) DownloadURL(file models.File) (string, error) {
	if strings.TrimSpace(file.ID) == "" {
		return "", ErrURLUnavailable
	}
	return c.URL(fmt.Sprintf("/files/%s/download", escape(file.ID))), nil
}

// Share requests a signed share link for file.
func (c *Client) Share(ctx context.Context, file models.File) (*models.ShareLink, error) {
	if strings.TrimSpace(file.ID) == "" {
		return nil, ErrURLUnavailable
	}
	var link models.ShareLink
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/files/%s/share", escape(file.ID)), nil, "", &link); err != nil {
		return nil, err
	}
	link.URL = c.baseURL + link.URL
	return &link, nil
}

// Download streams file into w and returns the server suggested file name.
func (c *Client) Download(ctx context.Context, file models.File, w io.Writer) (string, error) {
	if strings.TrimSpace(file.ID) == "" {
		return "", ErrURLUnavailable
	}
	res, err := c.send(ctx, http.MethodGet, fmt.Sprintf("/files/%s/download", escape(file.ID)), nil, "")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if _, err := io.Copy(w, res.Body); err != nil {
		return "", transportError(err)
	}
	return attachmentName(res.Header.Get("Content-Disposition"), file.OriginalName), nil
}

// DownloadTo writes file into dir and returns the created path. A partial file is
// removed when the transfer fails.
func (c *Client) DownloadTo(ctx context.Context, file models.File, dir string) (string, error) {
	if strings.TrimSpace(file.ID) == "" {
		return "", ErrURLUnavailable
	}
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".archive-download-*")
	if err != nil {
		return "", fmt.Errorf("création du fichier temporaire : %w", err)
	}
	name, err := c.Download(ctx, file, tmp)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	dest := filepath.Join(dir, safeName(name))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("enregistrement du fichier : %w", err)
	}
	return dest, nil
}

func attachmentName(header, fallback string) string {
	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if fallback != "" {
		return fallback
	}
	return "document.pdf"
}

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	return name
}
