package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

type catalogRepoStub struct {
	semesters []models.Semester
	calls     int
	resolved  []models.HierarchyPath
	err       error
}

func (r *catalogRepoStub) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	r.calls++
	return r.semesters, r.err
}

func (r *catalogRepoStub) ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, error) {
	r.calls++
	return nil, r.err
}

func (r *catalogRepoStub) ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, error) {
	r.calls++
	return []models.Subject{{ID: "sub-1", Name: "Analyse"}}, r.err
}

func (r *catalogRepoStub) ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, error) {
	r.calls++
	return []models.Year{{ID: "y-1", Year: "2024"}}, r.err
}

func (r *catalogRepoStub) Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error) {
	r.resolved = append(r.resolved, path)
	return &models.ResolvedHierarchy{YearID: "y-1"}, r.err
}

type memoryCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, _ := json.Marshal(value)
	c.entries[key] = data
}

func (c *memoryCache) Invalidate(ctx context.Context, pattern string) {
	c.invalidated = append(c.invalidated, pattern)
	c.entries = make(map[string][]byte)
}

func TestCatalogServiceCachesListings(t *testing.T) {
	repo := &catalogRepoStub{semesters: []models.Semester{{ID: "sem-1", Name: "s1", DisplayName: "Semestre 1"}}}
	cache := newMemoryCache()
	svc := NewCatalogService(repo, cache, time.Minute, nil)

	first, hit, err := svc.ListSemesters(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := svc.ListSemesters(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, repo.calls)

	years, _, err := svc.ListYears(context.Background(), "sem-1", "typ-1", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "2024", years[0].Year)
	assert.Contains(t, cache.entries, "catalog:years:sem-1:typ-1:sub-1")
}

func TestCatalogServiceEmptyListIsNotNil(t *testing.T) {
	svc := NewCatalogService(&catalogRepoStub{}, nil, time.Minute, nil)
	types, hit, err := svc.ListTypes(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, types)
	assert.Empty(t, types)
}

func TestCatalogServiceWrapsRepositoryErrors(t *testing.T) {
	svc := NewCatalogService(&catalogRepoStub{err: errors.New("db down")}, nil, time.Minute, nil)
	_, _, err := svc.ListSemesters(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestCatalogServiceResolveNormalisesAndInvalidates(t *testing.T) {
	repo := &catalogRepoStub{}
	cache := newMemoryCache()
	svc := NewCatalogService(repo, cache, time.Minute, nil)

	_, err := svc.Resolve(context.Background(), models.HierarchyPath{Semester: " S 2 ", Type: "Compositions", Subject: " Droit   civil ", Year: "2024"})
	require.NoError(t, err)
	require.Len(t, repo.resolved, 1)
	assert.Equal(t, models.HierarchyPath{
		Semester:        "s2",
		SemesterDisplay: "Semestre 2",
		Type:            "compositions",
		TypeDisplay:     "Compositions",
		Subject:         "Droit civil",
		Year:            "2024",
	}, repo.resolved[0])
	assert.Equal(t, []string{"catalog:*"}, cache.invalidated)
}

func TestNormalizePathRejects(t *testing.T) {
	_, err := NormalizePath(models.HierarchyPath{Semester: "s1", Type: "examen", Subject: "x", Year: "2024"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = NormalizePath(models.HierarchyPath{Semester: "s1", Type: "td", Subject: " ", Year: "2024"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSemesterLabel(t *testing.T) {
	assert.Equal(t, "Semestre 1", SemesterLabel("s1"))
	assert.Equal(t, "Semestre 10", SemesterLabel("s010"))
	assert.Equal(t, "Semestre 0", SemesterLabel("s0"))
	assert.Equal(t, "Master", SemesterLabel("master"))
	assert.Equal(t, "", SemesterLabel(""))
}
