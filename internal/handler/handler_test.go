package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/middleware"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/service"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type fakeCatalogSrv struct {
	hit           bool
	lastSemester  string
	lastTypeID    string
	lastSubjectID string
}

func (f *fakeCatalogSrv) ListSemesters(context.Context) ([]models.Semester, bool, error) {
	return []models.Semester{{ID: "sem-1", Name: "s1", DisplayName: "Semestre 1"}}, f.hit, nil
}

func (f *fakeCatalogSrv) ListTypes(_ context.Context, semesterID string) ([]models.DocumentType, bool, error) {
	f.lastSemester = semesterID
	return []models.DocumentType{}, f.hit, nil
}

func (f *fakeCatalogSrv) ListSubjects(_ context.Context, semesterID, typeID string) ([]models.Subject, bool, error) {
	f.lastSemester, f.lastTypeID = semesterID, typeID
	return []models.Subject{}, f.hit, nil
}

func (f *fakeCatalogSrv) ListYears(_ context.Context, semesterID, typeID, subjectID string) ([]models.Year, bool, error) {
	f.lastSemester, f.lastTypeID, f.lastSubjectID = semesterID, typeID, subjectID
	return []models.Year{{ID: "y-1", Year: "2024"}}, f.hit, nil
}

type fakeFileSrv struct {
	files     map[string]models.File
	upload    *service.FileUpload
	update    dto.UpdateFileRequest
	query     dto.FileListQuery
	content   []byte
	redirect  string
	uploadErr error
}

func newFakeFileSrv() *fakeFileSrv {
	return &fakeFileSrv{
		files: map[string]models.File{
			"f-1": {ID: "f-1", OriginalName: "serie 1.pdf", Semester: "s1", Type: "td", Subject: "Analyse", Year: "2024"},
			"f-2": {ID: "f-2", OriginalName: "examen.pdf", Semester: "s2", Type: "compositions", Subject: "Droit", Year: "2023"},
		},
		content: []byte("%PDF-1.4 fake"),
	}
}

func (f *fakeFileSrv) Upload(_ context.Context, upload service.FileUpload) (*models.File, error) {
	f.upload = &upload
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	file := models.File{ID: "f-3", OriginalName: upload.Filename, FileSize: upload.Size}
	f.files[file.ID] = file
	return &file, nil
}

func (f *fakeFileSrv) ListByYear(_ context.Context, yearID string) ([]models.File, error) {
	return []models.File{f.files["f-1"]}, nil
}

func (f *fakeFileSrv) ListAdmin(_ context.Context, query dto.FileListQuery) ([]models.File, *models.Pagination, error) {
	f.query = query
	out := make([]models.File, 0, len(f.files))
	for _, id := range []string{"f-1", "f-2", "f-3"} {
		if file, ok := f.files[id]; ok {
			out = append(out, file)
		}
	}
	return out, &models.Pagination{Page: 1, PageSize: len(out), TotalCount: len(out)}, nil
}

func (f *fakeFileSrv) Update(_ context.Context, id string, req dto.UpdateFileRequest) (*models.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
	}
	f.update = req
	if req.OriginalName != nil {
		file.OriginalName = *req.OriginalName
	}
	f.files[id] = file
	return &file, nil
}

func (f *fakeFileSrv) Delete(_ context.Context, id string) error {
	if _, ok := f.files[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
	}
	delete(f.files, id)
	return nil
}

func (f *fakeFileSrv) Open(_ context.Context, id, disposition string) (*service.FileContent, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
	}
	if f.redirect != "" {
		return &service.FileContent{RedirectURL: f.redirect}, nil
	}
	return &service.FileContent{
		Reader:      io.NopCloser(bytes.NewReader(f.content)),
		Name:        file.OriginalName,
		MimeType:    "application/pdf",
		Size:        int64(len(f.content)),
		Disposition: disposition,
	}, nil
}

func (f *fakeFileSrv) Share(_ context.Context, id string) (*models.ShareLink, error) {
	return &models.ShareLink{FileID: id, Token: "tok", URL: "/api/shared/tok"}, nil
}

func (f *fakeFileSrv) OpenShared(ctx context.Context, token string) (*service.FileContent, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lien de partage invalide")
	}
	return f.Open(ctx, "f-1", service.DispositionAttachment)
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, req dto.LoginRequest) (*models.AdminSession, error) {
	if req.Password != "s3cret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.AdminSession{Token: "good", ExpiresIn: 3600}, nil
}

func (fakeAuth) ValidateToken(token string) (*models.AdminClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session invalide")
	}
	return &models.AdminClaims{Role: models.RoleAdmin}, nil
}

type fakeStats struct{}

func (fakeStats) Stats(context.Context) (*models.Stats, error) {
	return &models.Stats{ArchiveTotals: models.ArchiveTotals{TotalFiles: 2}}, nil
}

func (fakeStats) Export(_ context.Context, format string) (*service.ExportedReport, error) {
	if format != "csv" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format d'export non supporté")
	}
	return &service.ExportedReport{Filename: "archive-stats.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")}, nil
}

type fakeHealth struct{ status string }

func (f fakeHealth) Check(context.Context) models.HealthStatus {
	return models.HealthStatus{Status: f.status, Checks: map[string]string{"database": f.status}}
}

func newTestRouter(files *fakeFileSrv, catalog *fakeCatalogSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{APIPrefix: "/api"}, zap.NewNop(), service.NewMetricsService(), Handlers{
		Catalog: NewCatalogHandler(catalog),
		Files:   NewFileHandler(files, 0),
		Admin:   NewAdminHandler(fakeAuth{}, fakeStats{}),
		Metrics: NewMetricsHandler(service.NewMetricsService(), fakeHealth{status: service.HealthOK}),
		Auth:    fakeAuth{},
	})
}

func do(r http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var adminHeaders = map[string]string{"Authorization": "Bearer good"}

func TestCatalogHandlerReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCatalogHandler(&fakeCatalogSrv{hit: true})

	r := gin.New()
	r.GET("/api/semesters", middleware.CatalogListing(), h.ListSemesters)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/semesters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "semesters", env.Meta["level"])
	assert.EqualValues(t, 1, env.Meta["count"])
	var semesters []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &semesters))
	assert.Equal(t, "sem-1", semesters[0]["_id"])
}

func TestRouterCatalogParams(t *testing.T) {
	catalog := &fakeCatalogSrv{}
	r := newTestRouter(newFakeFileSrv(), catalog)

	rec := do(r, http.MethodGet, "/api/semesters/sem-1/types/typ-1/subjects/sub-1/years", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sem-1", catalog.lastSemester)
	assert.Equal(t, "typ-1", catalog.lastTypeID)
	assert.Equal(t, "sub-1", catalog.lastSubjectID)

	rec = do(r, http.MethodGet, "/api/semesters/sem-9/types", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(decodeEnvelope(t, rec).Data))
}

func TestFileHandlerViewAndDownload(t *testing.T) {
	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})

	rec := do(r, http.MethodGet, "/api/files/f-1/view", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="serie 1.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 fake", rec.Body.String())

	rec = do(r, http.MethodGet, "/api/files/f-1/download", nil, nil)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))

	rec = do(r, http.MethodGet, "/api/files/nope/view", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "fichier introuvable", decodeEnvelope(t, rec).Error.Message)
}

func TestFileHandlerRedirectsToPublicURL(t *testing.T) {
	files := newFakeFileSrv()
	files.redirect = "https://cdn.example.com/archive/x.pdf"
	r := newTestRouter(files, &fakeCatalogSrv{})

	rec := do(r, http.MethodGet, "/api/files/f-1/download", nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, files.redirect, rec.Header().Get("Location"))
}

func TestFileHandlerShare(t *testing.T) {
	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})

	rec := do(r, http.MethodGet, "/api/files/f-1/share", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "/api/shared/tok")

	rec = do(r, http.MethodGet, "/api/shared/tok", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodGet, "/api/shared/bad", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/files"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/upload"},
		{http.MethodPut, "/api/files/f-1"},
		{http.MethodDelete, "/api/files/f-1"},
	} {
		rec := do(r, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestAdminLogin(t *testing.T) {
	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})

	rec := do(r, http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"s3cret"}`), map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"token":"good"`)

	rec = do(r, http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"x"}`), map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "mot de passe incorrect", decodeEnvelope(t, rec).Error.Message)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestFileHandlerUpload(t *testing.T) {
	files := newFakeFileSrv()
	r := newTestRouter(files, &fakeCatalogSrv{})

	body, contentType := multipartBody(t, map[string]string{"semester": "s1", "type": "td", "subject": "Analyse", "year": "2024"}, "serie.pdf", []byte("%PDF-1.4"))
	rec := do(r, http.MethodPost, "/api/upload", body, map[string]string{"Content-Type": contentType, "Authorization": "Bearer good"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, files.upload)
	assert.Equal(t, dto.UploadForm{Semester: "s1", Type: "td", Subject: "Analyse", Year: "2024"}, files.upload.Form)
	assert.Equal(t, "serie.pdf", files.upload.Filename)
	assert.Equal(t, int64(8), files.upload.Size)
	assert.NotNil(t, files.upload.Content)

	files.uploadErr = appErrors.Clone(appErrors.ErrValidation, "Veuillez sélectionner un fichier PDF")
	body, contentType = multipartBody(t, map[string]string{"semester": "s1"}, "", nil)
	rec = do(r, http.MethodPost, "/api/upload", body, map[string]string{"Content-Type": contentType, "Authorization": "Bearer good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, files.upload.Content)
	assert.Equal(t, "Veuillez sélectionner un fichier PDF", decodeEnvelope(t, rec).Error.Message)
}

func TestFileHandlerUpdateAndDelete(t *testing.T) {
	files := newFakeFileSrv()
	r := newTestRouter(files, &fakeCatalogSrv{})
	headers := map[string]string{"Authorization": "Bearer good", "Content-Type": "application/json"}

	rec := do(r, http.MethodPut, "/api/files/f-1", strings.NewReader(`{"originalName":"renamed.pdf","year":"2025"}`), headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, files.update.Year)
	assert.Equal(t, "2025", *files.update.Year)
	assert.Nil(t, files.update.Semester)

	rec = do(r, http.MethodDelete, "/api/files/f-2", nil, adminHeaders)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/api/admin/files?search=serie&pageSize=5", nil, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "serie", files.query.Search)
	assert.Equal(t, 5, files.query.PageSize)
	env := decodeEnvelope(t, rec)
	assert.NotContains(t, string(env.Data), "f-2")
	assert.Equal(t, 1, env.Pagination.TotalCount)

	rec = do(r, http.MethodDelete, "/api/files/f-2", nil, adminHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStatsAndExport(t *testing.T) {
	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})

	rec := do(r, http.MethodGet, "/api/admin/stats", nil, adminHeaders)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"totalFiles":2`)

	rec = do(r, http.MethodGet, "/api/admin/stats/export", nil, adminHeaders)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=archive-stats.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())

	rec = do(r, http.MethodGet, "/api/admin/stats/export?format=xlsx", nil, adminHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(service.NewMetricsService(), fakeHealth{status: service.HealthDown})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	h.Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	r := newTestRouter(newFakeFileSrv(), &fakeCatalogSrv{})
	rec = do(r, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminClaimsHelper(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, middleware.AdminClaims(c))
}

func TestFileHandlerUploadTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	files := newFakeFileSrv()
	h := NewFileHandler(files, 1024)

	body, contentType := multipartBody(t, map[string]string{"semester": "s1"}, "gros.pdf", bytes.Repeat([]byte("a"), 2<<20))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, files.upload)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Message, "taille maximale")
}

func TestTooLargeMatchesMaxBytesError(t *testing.T) {
	limited := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader("0123456789")), 4)
	_, err := io.ReadAll(limited)
	require.Error(t, err)
	assert.True(t, tooLarge(err))
	assert.True(t, tooLarge(fmt.Errorf("multipart: NextPart: %w", err)))
	assert.False(t, tooLarge(errors.New("request body too large")))
	assert.False(t, tooLarge(nil))
}
