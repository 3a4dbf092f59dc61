package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

const catalogCachePattern = "catalog:*"

type catalogStore interface {
	ListSemesters(ctx context.Context) ([]models.Semester, error)
	ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, error)
	ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, error)
	ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, error)
	Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, pattern string)
}

// CatalogService serves the browsing hierarchy and resolves upload destinations.
type CatalogService struct {
	repo   catalogStore
	cache  catalogCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(repo catalogStore, cache catalogCache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListSemesters returns all semesters. The boolean reports a cache hit.
func (s *CatalogService) ListSemesters(ctx context.Context) ([]models.Semester, bool, error) {
	return cachedList(ctx, s, "catalog:semesters", func() ([]models.Semester, error) {
		return s.repo.ListSemesters(ctx)
	})
}

// ListTypes returns the document types of a semester; unknown semesters yield an empty list.
func (s *CatalogService) ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, bool, error) {
	return cachedList(ctx, s, "catalog:types:"+semesterID, func() ([]models.DocumentType, error) {
		return s.repo.ListTypes(ctx, semesterID)
	})
}

// ListSubjects returns the subjects under a semester and type.
func (s *CatalogService) ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, bool, error) {
	key := fmt.Sprintf("catalog:subjects:%s:%s", semesterID, typeID)
	return cachedList(ctx, s, key, func() ([]models.Subject, error) {
		return s.repo.ListSubjects(ctx, semesterID, typeID)
	})
}

// ListYears returns the years of a subject, most recent first.
func (s *CatalogService) ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, bool, error) {
	key := fmt.Sprintf("catalog:years:%s:%s:%s", semesterID, typeID, subjectID)
	return cachedList(ctx, s, key, func() ([]models.Year, error) {
		return s.repo.ListYears(ctx, semesterID, typeID, subjectID)
	})
}

// Resolve finds or creates the hierarchy for path and drops cached listings.
func (s *CatalogService) Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	resolved, err := s.repo.Resolve(ctx, normalized)
	if err != nil {
		return nil, appErrors.Internal(err, "échec de la résolution de la hiérarchie")
	}
	s.Invalidate(ctx)
	return resolved, nil
}

// Invalidate drops every cached catalog listing.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, catalogCachePattern)
	}
}

func cachedList[T any](ctx context.Context, s *CatalogService, key string, load func() ([]T, error)) ([]T, bool, error) {
	if s.cache != nil {
		var cached []T
		if s.cache.Get(ctx, key, &cached) {
			return cached, true, nil
		}
	}
	items, err := load()
	if err != nil {
		return nil, false, appErrors.Internal(err, "échec du chargement du catalogue")
	}
	if items == nil {
		items = make([]T, 0)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, items, s.ttl)
	}
	return items, false, nil
}

var (
	semesterPattern = regexp.MustCompile(`^s(\d+)$`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// NormalizePath canonicalises names and derives display labels.
func NormalizePath(path models.HierarchyPath) (models.HierarchyPath, error) {
	out := models.HierarchyPath{
		Semester: strings.ToLower(spaceRun.ReplaceAllString(strings.TrimSpace(path.Semester), "")),
		Type:     strings.ToLower(strings.TrimSpace(path.Type)),
		Subject:  spaceRun.ReplaceAllString(strings.TrimSpace(path.Subject), " "),
		Year:     strings.TrimSpace(path.Year),
	}
	if out.Semester == "" || out.Subject == "" || out.Year == "" {
		return out, appErrors.Clone(appErrors.ErrValidation, "hiérarchie incomplète")
	}
	label, ok := models.DocumentTypeLabel(out.Type)
	if !ok {
		return out, appErrors.Clone(appErrors.ErrValidation, "Type de document invalide")
	}
	out.TypeDisplay = label
	out.SemesterDisplay = SemesterLabel(out.Semester)
	return out, nil
}

// SemesterLabel renders "s1" as "Semestre 1" and leaves other names capitalised.
func SemesterLabel(name string) string {
	if m := semesterPattern.FindStringSubmatch(name); m != nil {
		number := strings.TrimLeft(m[1], "0")
		if number == "" {
			number = "0"
		}
		return "Semestre " + number
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
