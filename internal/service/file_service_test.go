package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/validation"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/jobs"
	"github.com/noah-isme/univ-archive/pkg/storage"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type fileRepoStub struct {
	items     map[string]*models.File
	filter    models.FileFilter
	createErr error
	updates   []models.FileUpdate
	deleted   []string
}

func newFileRepoStub() *fileRepoStub {
	return &fileRepoStub{items: make(map[string]*models.File)}
}

func (r *fileRepoStub) Create(ctx context.Context, file *models.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	file.ID = fmt.Sprintf("file-%d", len(r.items)+1)
	copy := *file
	copy.Semester, copy.Type, copy.Subject, copy.Year = "s1", "td", "Analyse", "2024"
	r.items[file.ID] = &copy
	return nil
}

func (r *fileRepoStub) GetByID(ctx context.Context, id string) (*models.File, error) {
	item, ok := r.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (r *fileRepoStub) List(ctx context.Context, filter models.FileFilter) ([]models.File, error) {
	r.filter = filter
	result := make([]models.File, 0, len(r.items))
	for _, item := range r.items {
		if item.DeletedAt == nil {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fileRepoStub) Count(ctx context.Context, filter models.FileFilter) (int, error) {
	return 42, nil
}

func (r *fileRepoStub) Update(ctx context.Context, id string, update models.FileUpdate) error {
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.updates = append(r.updates, update)
	if update.OriginalName != nil {
		item.OriginalName = *update.OriginalName
	}
	if update.YearID != nil {
		item.YearID = *update.YearID
	}
	return nil
}

func (r *fileRepoStub) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.DeletedAt = &deletedAt
	r.deleted = append(r.deleted, id)
	return nil
}

type resolverStub struct {
	paths []models.HierarchyPath
	err   error
}

func (r *resolverStub) Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.paths = append(r.paths, path)
	return &models.ResolvedHierarchy{SemesterID: "sem", TypeID: "typ", SubjectID: "sub", YearID: "year-" + path.Year}, nil
}

type memoryProvider struct {
	name      string
	objects   map[string][]byte
	publicURL string
}

func newMemoryProvider(name string) *memoryProvider {
	return &memoryProvider{name: name, objects: make(map[string][]byte)}
}

func (p *memoryProvider) Name() string { return p.name }

func (p *memoryProvider) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	p.objects[key] = data
	return nil
}

func (p *memoryProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := p.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *memoryProvider) Delete(ctx context.Context, key string) error {
	delete(p.objects, key)
	return nil
}

func (p *memoryProvider) PublicURL(key string, download bool) string {
	if p.publicURL == "" {
		return ""
	}
	return p.publicURL + "/" + key
}

type enqueuerStub struct {
	jobs []jobs.Job
	err  error
}

func (e *enqueuerStub) Enqueue(job jobs.Job) error {
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

type fileServiceFixture struct {
	svc      *FileService
	repo     *fileRepoStub
	resolver *resolverStub
	blobs    *memoryProvider
	queue    *enqueuerStub
}

func newFileServiceFixture() *fileServiceFixture {
	repo := newFileRepoStub()
	resolver := &resolverStub{}
	blobs := newMemoryProvider(storage.ProviderLocal)
	queue := &enqueuerStub{}
	svc := NewFileService(repo, resolver, storage.NewRegistry(blobs), storage.NewShareSigner("secret", time.Hour), queue, NewMetricsService(), nil, nil, FileServiceConfig{APIPrefix: "/api/"})
	return &fileServiceFixture{svc: svc, repo: repo, resolver: resolver, blobs: blobs, queue: queue}
}

func validFileUpload() FileUpload {
	return FileUpload{
		Form:     dto.UploadForm{Semester: "S1", Type: "TD", Subject: "Analyse  Réelle", Year: "2024"},
		Filename: "serie 1.pdf",
		Size:     int64(len(samplePDF)),
		MimeType: "application/pdf",
		Content:  bytes.NewReader(samplePDF),
	}
}

func TestFileServiceUpload(t *testing.T) {
	f := newFileServiceFixture()

	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)
	assert.Equal(t, "serie 1.pdf", file.OriginalName)
	assert.Equal(t, "year-2024", file.YearID)
	assert.Equal(t, storage.ProviderLocal, file.StorageProvider)
	assert.Equal(t, "/api/files/"+file.ID+"/view", file.ViewURL)
	assert.Equal(t, "/api/files/"+file.ID+"/download", file.DownloadURL)
	assert.True(t, strings.HasPrefix(file.FilePath, "s1/td/analyse-reelle/2024/"))
	assert.True(t, strings.HasSuffix(file.FilePath, ".pdf"))
	assert.Equal(t, samplePDF, f.blobs.objects[file.FilePath])

	require.Len(t, f.resolver.paths, 1)
	assert.Equal(t, "Analyse Réelle", f.resolver.paths[0].Subject)
	assert.Equal(t, uint64(1), f.svc.metrics.Snapshot().Uploads)
}

func TestFileServiceUploadRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*FileUpload)
		target  *appErrors.Error
		message string
	}{
		{"missing semester", func(u *FileUpload) { u.Form.Semester = "" }, appErrors.ErrValidation, validation.MsgMissingSemester},
		{"bad type", func(u *FileUpload) { u.Form.Type = "examen" }, appErrors.ErrValidation, validation.MsgInvalidType},
		{"no file", func(u *FileUpload) { u.Content = nil; u.Size = 0 }, appErrors.ErrValidation, validation.MsgMissingFile},
		{"not pdf", func(u *FileUpload) {
			data := []byte("hello plain text")
			u.Content = bytes.NewReader(data)
			u.Size = int64(len(data))
		}, appErrors.ErrUnsupportedMedia, validation.MsgNotPDF},
		{"spoofed header", func(u *FileUpload) {
			data := []byte("<html><body>not a pdf</body></html>")
			u.Content = bytes.NewReader(data)
			u.Size = int64(len(data))
		}, appErrors.ErrUnsupportedMedia, validation.MsgNotPDF},
		{"empty", func(u *FileUpload) { u.Content = bytes.NewReader(nil); u.Size = 0 }, appErrors.ErrValidation, validation.MsgEmptyFile},
		{"too large", func(u *FileUpload) { u.Size = validation.MaxUploadSize + 1 }, appErrors.ErrPayloadTooLarge, validation.TooLargeMessage(validation.MaxUploadSize)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFileServiceFixture()
			upload := validFileUpload()
			tc.mutate(&upload)

			_, err := f.svc.Upload(context.Background(), upload)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.Equal(t, tc.message, appErrors.FromError(err).Message)
			assert.Empty(t, f.blobs.objects)
			assert.Empty(t, f.repo.items)
		})
	}
}

func TestFileServiceUploadRemovesBlobWhenInsertFails(t *testing.T) {
	f := newFileServiceFixture()
	f.repo.createErr = errors.New("insert failed")

	_, err := f.svc.Upload(context.Background(), validFileUpload())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, f.blobs.objects)
}

func TestFileServiceUploadRemovesBlobWhenResolveFails(t *testing.T) {
	f := newFileServiceFixture()
	f.resolver.err = errors.New("db down")

	_, err := f.svc.Upload(context.Background(), validFileUpload())
	require.Error(t, err)
	assert.Empty(t, f.blobs.objects)
}

func TestFileServiceListAdminPaginates(t *testing.T) {
	f := newFileServiceFixture()
	_, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	files, pagination, err := f.svc.ListAdmin(context.Background(), dto.FileListQuery{Search: "serie", Semester: "S1", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, models.FileFilter{Semester: "s1", Search: "serie", Limit: 10, Offset: 10}, f.repo.filter)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 10, TotalCount: 42}, pagination)

	_, pagination, err = f.svc.ListAdmin(context.Background(), dto.FileListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
}

func TestFileServiceUpdateRenameAndMove(t *testing.T) {
	f := newFileServiceFixture()
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	name := "  serie corrigée.pdf "
	year := "2023-2024"
	updated, err := f.svc.Update(context.Background(), file.ID, dto.UpdateFileRequest{OriginalName: &name, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, "serie corrigée.pdf", updated.OriginalName)
	assert.Equal(t, "year-2023-2024", updated.YearID)

	last := f.resolver.paths[len(f.resolver.paths)-1]
	assert.Equal(t, models.HierarchyPath{Semester: "s1", Type: "td", Subject: "Analyse", Year: "2023-2024"}, last)
}

func TestFileServiceUpdateRejectsInvalidMove(t *testing.T) {
	f := newFileServiceFixture()
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	docType := "examen"
	_, err = f.svc.Update(context.Background(), file.ID, dto.UpdateFileRequest{Type: &docType})
	require.Error(t, err)
	assert.Equal(t, validation.MsgInvalidType, appErrors.FromError(err).Message)

	blank := "   "
	_, err = f.svc.Update(context.Background(), file.ID, dto.UpdateFileRequest{OriginalName: &blank})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	renamed := "x.pdf"
	_, err = f.svc.Update(context.Background(), "missing", dto.UpdateFileRequest{OriginalName: &renamed})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFileServiceDeleteSchedulesBlobRemoval(t *testing.T) {
	f := newFileServiceFixture()
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), file.ID))
	assert.Equal(t, []string{file.ID}, f.repo.deleted)
	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Equal(t, JobBlobDelete, job.Type)
	assert.Equal(t, BlobRef{Provider: storage.ProviderLocal, Key: file.FilePath}, job.Payload)

	_, err = f.svc.Get(context.Background(), file.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, f.svc.HandleBlobDelete(context.Background(), job))
	assert.Empty(t, f.blobs.objects)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), file.ID), appErrors.ErrNotFound)
}

func TestFileServiceDeleteFallsBackWhenQueueFull(t *testing.T) {
	f := newFileServiceFixture()
	f.queue.err = jobs.ErrQueueFull
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), file.ID))
	assert.Empty(t, f.blobs.objects)
}

func TestHandleBlobDeleteRejectsPayload(t *testing.T) {
	f := newFileServiceFixture()
	err := f.svc.HandleBlobDelete(context.Background(), jobs.Job{Type: JobBlobDelete, Payload: "nope"})
	assert.Error(t, err)
}

func TestFileServiceOpen(t *testing.T) {
	f := newFileServiceFixture()
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	content, err := f.svc.Open(context.Background(), file.ID, "bogus")
	require.NoError(t, err)
	defer content.Reader.Close()
	assert.Equal(t, DispositionInline, content.Disposition)
	assert.Equal(t, "serie 1.pdf", content.Name)
	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)

	delete(f.blobs.objects, file.FilePath)
	_, err = f.svc.Open(context.Background(), file.ID, DispositionAttachment)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFileServiceOpenRedirectsForPublicProvider(t *testing.T) {
	f := newFileServiceFixture()
	f.blobs.publicURL = "https://cdn.example.com/archive"
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	content, err := f.svc.Open(context.Background(), file.ID, DispositionAttachment)
	require.NoError(t, err)
	assert.Nil(t, content.Reader)
	assert.Equal(t, "https://cdn.example.com/archive/"+file.FilePath, content.RedirectURL)
}

func TestFileServiceShareRoundTrip(t *testing.T) {
	f := newFileServiceFixture()
	file, err := f.svc.Upload(context.Background(), validFileUpload())
	require.NoError(t, err)

	link, err := f.svc.Share(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, "/api/shared/"+link.Token, link.URL)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	content, err := f.svc.OpenShared(context.Background(), link.Token)
	require.NoError(t, err)
	defer content.Reader.Close()
	assert.Equal(t, DispositionAttachment, content.Disposition)

	_, err = f.svc.OpenShared(context.Background(), link.Token+"x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
