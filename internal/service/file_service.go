package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/validation"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/jobs"
	"github.com/noah-isme/univ-archive/pkg/storage"
)

type fileStore interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, filter models.FileFilter) ([]models.File, error)
	Count(ctx context.Context, filter models.FileFilter) (int, error)
	Update(ctx context.Context, id string, update models.FileUpdate) error
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}

type hierarchyResolver interface {
	Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error)
}

type blobProviders interface {
	Active() storage.Provider
	Get(name string) (storage.Provider, error)
}

type shareSigner interface {
	Sign(fileID string) (string, time.Time, error)
	Verify(token string) (string, time.Time, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// File read dispositions.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// FileUpload carries an upload's form fields and content.
type FileUpload struct {
	Form     dto.UploadForm
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// FileContent is an opened file ready to be streamed, or a redirect to a public URL.
type FileContent struct {
	Reader      io.ReadCloser
	RedirectURL string
	Name        string
	MimeType    string
	Size        int64
	Disposition string
}

// FileServiceConfig holds validation limits and URL prefixes.
type FileServiceConfig struct {
	MaxFileSize int64
	APIPrefix   string
}

// FileService manages archived documents and their blobs.
type FileService struct {
	repo      fileStore
	catalog   hierarchyResolver
	storage   blobProviders
	signer    shareSigner
	cleanup   jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       FileServiceConfig
	now       func() time.Time
}

// NewFileService constructs the service with defaults.
func NewFileService(repo fileStore, catalog hierarchyResolver, providers blobProviders, signer shareSigner, cleanup jobEnqueuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = validation.MaxUploadSize
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	return &FileService{
		repo:      repo,
		catalog:   catalog,
		storage:   providers,
		signer:    signer,
		cleanup:   cleanup,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Upload validates and stores a PDF, then records it under its hierarchy.
func (s *FileService) Upload(ctx context.Context, upload FileUpload) (*models.File, error) {
	mimeType := upload.MimeType
	if upload.Content != nil && upload.Size > 0 {
		sniffed, err := sniffMime(upload.Content)
		if err != nil {
			return nil, err
		}
		if sniffed != "application/octet-stream" || mimeType == "" {
			mimeType = sniffed
		}
	}
	if verr := validation.CheckUpload(validation.Upload{
		Semester: upload.Form.Semester,
		Type:     upload.Form.Type,
		Subject:  upload.Form.Subject,
		Year:     upload.Form.Year,
		HasFile:  upload.Content != nil,
		MimeType: mimeType,
		Size:     upload.Size,
	}, s.cfg.MaxFileSize); verr != nil {
		return nil, uploadError(verr)
	}

	path, err := NormalizePath(models.HierarchyPath{
		Semester: upload.Form.Semester,
		Type:     upload.Form.Type,
		Subject:  upload.Form.Subject,
		Year:     upload.Form.Year,
	})
	if err != nil {
		return nil, err
	}

	provider := s.storage.Active()
	key := blobKey(path)
	if err := provider.Put(ctx, key, upload.Content, validation.PDFMimeType); err != nil {
		return nil, appErrors.Internal(err, "échec de l'enregistrement du fichier")
	}

	resolved, err := s.catalog.Resolve(ctx, path)
	if err != nil {
		s.discardBlob(provider, key)
		return nil, err
	}

	file := &models.File{
		YearID:          resolved.YearID,
		OriginalName:    originalName(upload.Filename),
		FileSize:        upload.Size,
		MimeType:        validation.PDFMimeType,
		FilePath:        key,
		StorageProvider: provider.Name(),
		UploadedAt:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, file); err != nil {
		s.discardBlob(provider, key)
		return nil, appErrors.Internal(err, "échec de l'enregistrement des métadonnées")
	}

	s.metrics.RecordUpload(provider.Name(), upload.Size)
	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID),
		zap.String("provider", provider.Name()),
		zap.Int64("size", upload.Size),
	)

	stored, err := s.repo.GetByID(ctx, file.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "échec du chargement du fichier")
	}
	return s.decorate(stored), nil
}

// ListByYear returns the files of a year; unknown years yield an empty list.
func (s *FileService) ListByYear(ctx context.Context, yearID string) ([]models.File, error) {
	files, err := s.repo.List(ctx, models.FileFilter{YearID: yearID})
	if err != nil {
		return nil, appErrors.Internal(err, "échec du chargement des fichiers")
	}
	return s.decorateAll(files), nil
}

// ListAdmin returns every active file with optional search, filters and paging.
func (s *FileService) ListAdmin(ctx context.Context, query dto.FileListQuery) ([]models.File, *models.Pagination, error) {
	filter := models.FileFilter{
		Semester: strings.ToLower(strings.TrimSpace(query.Semester)),
		Type:     strings.ToLower(strings.TrimSpace(query.Type)),
		Search:   query.Search,
	}
	page := query.Page
	if query.PageSize > 0 {
		if page <= 0 {
			page = 1
		}
		if query.PageSize > 200 {
			query.PageSize = 200
		}
		filter.Limit = query.PageSize
		filter.Offset = (page - 1) * query.PageSize
	}

	files, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "échec du chargement des fichiers")
	}
	total := len(files)
	if filter.Limit > 0 {
		if total, err = s.repo.Count(ctx, filter); err != nil {
			return nil, nil, appErrors.Internal(err, "échec du comptage des fichiers")
		}
	} else {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = total
	}
	return s.decorateAll(files), &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one active file.
func (s *FileService) Get(ctx context.Context, id string) (*models.File, error) {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
		}
		return nil, appErrors.Internal(err, "échec du chargement du fichier")
	}
	return s.decorate(file), nil
}

// Update renames a file and/or moves it to another position in the hierarchy.
func (s *FileService) Update(ctx context.Context, id string, req dto.UpdateFileRequest) (*models.File, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "modification invalide")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var update models.FileUpdate
	if req.OriginalName != nil {
		name := strings.TrimSpace(*req.OriginalName)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "le nom du fichier est requis")
		}
		update.OriginalName = &name
	}
	if req.MovesHierarchy() {
		path := models.HierarchyPath{
			Semester: pick(req.Semester, current.Semester),
			Type:     pick(req.Type, current.Type),
			Subject:  pick(req.Subject, current.Subject),
			Year:     pick(req.Year, current.Year),
		}
		if verr := validation.CheckHierarchy(path.Semester, path.Type, path.Subject, path.Year); verr != nil {
			return nil, uploadError(verr)
		}
		resolved, err := s.catalog.Resolve(ctx, path)
		if err != nil {
			return nil, err
		}
		if resolved.YearID != current.YearID {
			update.YearID = &resolved.YearID
		}
	}
	if update.OriginalName == nil && update.YearID == nil {
		return current, nil
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
		}
		return nil, appErrors.Internal(err, "échec de la mise à jour du fichier")
	}
	s.logger.Info("file updated", zap.String("file_id", id))
	return s.Get(ctx, id)
}

// Delete soft deletes a file and schedules removal of its blob.
func (s *FileService) Delete(ctx context.Context, id string) error {
	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fichier introuvable")
		}
		return appErrors.Internal(err, "échec de la suppression du fichier")
	}

	ref := BlobRef{Provider: file.StorageProvider, Key: file.FilePath}
	job := jobs.Job{ID: file.ID, Type: JobBlobDelete, Payload: ref}
	if s.cleanup == nil {
		s.removeBlobNow(ctx, ref)
	} else if err := s.cleanup.Enqueue(job); err != nil {
		s.logger.Warn("blob cleanup enqueue failed, deleting inline", zap.String("file_id", id), zap.Error(err))
		s.removeBlobNow(ctx, ref)
	}
	s.logger.Info("file deleted", zap.String("file_id", id))
	return nil
}

// Open prepares a file for streaming with the given disposition.
func (s *FileService) Open(ctx context.Context, id, disposition string) (*FileContent, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, file, disposition)
}

// Share issues a signed, expiring URL for a file.
func (s *FileService) Share(ctx context.Context, id string) (*models.ShareLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "partage indisponible")
	}
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Sign(file.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "échec de la création du lien de partage")
	}
	return &models.ShareLink{
		FileID:    file.ID,
		Token:     token,
		URL:       fmt.Sprintf("%s/shared/%s", s.cfg.APIPrefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenShared validates a share token and prepares its file for download.
func (s *FileService) OpenShared(ctx context.Context, token string) (*FileContent, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "partage indisponible")
	}
	fileID, _, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrShareTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "lien de partage expiré")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lien de partage invalide")
	}
	file, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, file, DispositionAttachment)
}

func (s *FileService) open(ctx context.Context, file *models.File, disposition string) (*FileContent, error) {
	if disposition != DispositionAttachment {
		disposition = DispositionInline
	}
	provider, err := s.storage.Get(file.StorageProvider)
	if err != nil {
		return nil, appErrors.Internal(err, "stockage du fichier indisponible")
	}
	content := &FileContent{
		Name:        file.OriginalName,
		MimeType:    file.MimeType,
		Size:        file.FileSize,
		Disposition: disposition,
	}
	s.metrics.RecordFileRead(disposition)
	if url := provider.PublicURL(file.FilePath, disposition == DispositionAttachment); url != "" {
		content.RedirectURL = url
		return content, nil
	}
	reader, err := provider.Open(ctx, file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error("blob missing for active file", zap.String("file_id", file.ID), zap.String("key", file.FilePath))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contenu du fichier introuvable")
		}
		return nil, appErrors.Internal(err, "échec de la lecture du fichier")
	}
	content.Reader = reader
	return content, nil
}

func (s *FileService) decorate(file *models.File) *models.File {
	file.ViewURL = fmt.Sprintf("%s/files/%s/view", s.cfg.APIPrefix, file.ID)
	file.DownloadURL = fmt.Sprintf("%s/files/%s/download", s.cfg.APIPrefix, file.ID)
	return file
}

func (s *FileService) decorateAll(files []models.File) []models.File {
	for i := range files {
		s.decorate(&files[i])
	}
	return files
}

func (s *FileService) discardBlob(provider storage.Provider, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := provider.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to discard orphan blob", zap.String("key", key), zap.Error(err))
	}
}

func uploadError(verr *validation.Error) error {
	switch verr.Kind {
	case validation.KindMimeType:
		return appErrors.Clone(appErrors.ErrUnsupportedMedia, verr.Message)
	case validation.KindTooLarge:
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, verr.Message)
	default:
		return appErrors.Clone(appErrors.ErrValidation, verr.Message)
	}
}

func sniffMime(content io.ReadSeeker) (string, error) {
	header := make([]byte, 512)
	n, err := io.ReadFull(content, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", appErrors.Internal(err, "échec de l'inspection du fichier")
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Internal(err, "échec de la relecture du fichier")
	}
	return http.DetectContentType(header[:n]), nil
}

func blobKey(path models.HierarchyPath) string {
	return strings.Join([]string{slug(path.Semester), slug(path.Type), slug(path.Subject), slug(path.Year), randomSuffix() + ".pdf"}, "/")
}

// slug folds accents and keeps lowercase ASCII letters, digits and dashes.
func slug(raw string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range norm.NFD.String(strings.ToLower(raw)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "x"
	}
	return out
}

func originalName(filename string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}

func pick(override *string, current string) string {
	if override != nil {
		return *override
	}
	return current
}

func randomSuffix() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
