package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/univ-archive/internal/models"
)

// SemestersQuery lists every semester.
func SemestersQuery() Query[[]models.Semester] {
	return NewQuery[[]models.Semester]("/semesters")
}

// ListSemesters fetches the home listing.
func (c *Client) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	return SemestersQuery().Fetch(ctx, c)
}

// ListTypes fetches the document types of a semester.
func (c *Client) ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, error) {
	return NewQuery[[]models.DocumentType](fmt.Sprintf("/semesters/%s/types", escape(semesterID))).Fetch(ctx, c)
}

// ListSubjects fetches the subjects under a semester and type.
func (c *Client) ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, error) {
	path := fmt.Sprintf("/semesters/%s/types/%s/subjects", escape(semesterID), escape(typeID))
	return NewQuery[[]models.Subject](path).Fetch(ctx, c)
}

// ListYears fetches the years of a subject.
func (c *Client) ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, error) {
	path := fmt.Sprintf("/semesters/%s/types/%s/subjects/%s/years", escape(semesterID), escape(typeID), escape(subjectID))
	return NewQuery[[]models.Year](path).Fetch(ctx, c)
}

// ListFiles fetches the files of a year.
func (c *Client) ListFiles(ctx context.Context, yearID string) ([]models.File, error) {
	return NewQuery[[]models.File](fmt.Sprintf("/years/%s/files", escape(yearID))).Fetch(ctx, c)
}

// HealthDown is the report status of a server that cannot serve requests.
const HealthDown = "down"

// Health fetches the server health report. A server that is down answers 503
// with the report attached; that report is returned instead of the error.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	status, err := NewQuery[models.HealthStatus]("/health").Fetch(ctx, c)
	if err == nil {
		return &status, nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusServiceUnavailable && len(reqErr.Data) > 0 {
		var report models.HealthStatus
		if json.Unmarshal(reqErr.Data, &report) == nil && report.Status != "" {
			return &report, nil
		}
	}
	return nil, err
}
