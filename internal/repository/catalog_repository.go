package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-archive/internal/models"
)

// CatalogRepository persists the semester, type, subject and year hierarchy.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListSemesters returns every semester ordered by name.
func (r *CatalogRepository) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT id, name, display_name, created_at FROM semesters ORDER BY name`
	items := make([]models.Semester, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return items, nil
}

// ListTypes returns the document types of a semester.
func (r *CatalogRepository) ListTypes(ctx context.Context, semesterID string) ([]models.DocumentType, error) {
	const query = `SELECT id, semester_id, name, display_name, created_at
	FROM document_types WHERE semester_id = $1 ORDER BY name`
	items := make([]models.DocumentType, 0)
	if err := r.db.SelectContext(ctx, &items, query, semesterID); err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	return items, nil
}

// ListSubjects returns the subjects of a semester and type.
func (r *CatalogRepository) ListSubjects(ctx context.Context, semesterID, typeID string) ([]models.Subject, error) {
	const query = `SELECT id, semester_id, type_id, name, created_at
	FROM subjects WHERE semester_id = $1 AND type_id = $2 ORDER BY name`
	items := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &items, query, semesterID, typeID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return items, nil
}

// ListYears returns the years of a subject, most recent first.
func (r *CatalogRepository) ListYears(ctx context.Context, semesterID, typeID, subjectID string) ([]models.Year, error) {
	const query = `SELECT id, semester_id, type_id, subject_id, year, created_at
	FROM years WHERE semester_id = $1 AND type_id = $2 AND subject_id = $3 ORDER BY year DESC`
	items := make([]models.Year, 0)
	if err := r.db.SelectContext(ctx, &items, query, semesterID, typeID, subjectID); err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return items, nil
}

// GetYear loads a single year.
func (r *CatalogRepository) GetYear(ctx context.Context, id string) (*models.Year, error) {
	const query = `SELECT id, semester_id, type_id, subject_id, year, created_at FROM years WHERE id = $1`
	var item models.Year
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Resolve finds or creates every level of path inside one transaction.
func (r *CatalogRepository) Resolve(ctx context.Context, path models.HierarchyPath) (*models.ResolvedHierarchy, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve hierarchy: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var out models.ResolvedHierarchy
	const semesterQuery = `INSERT INTO semesters (id, name, display_name) VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`
	if err := tx.GetContext(ctx, &out.SemesterID, semesterQuery, uuid.NewString(), path.Semester, path.SemesterDisplay); err != nil {
		return nil, fmt.Errorf("resolve semester: %w", err)
	}

	const typeQuery = `INSERT INTO document_types (id, semester_id, name, display_name) VALUES ($1, $2, $3, $4)
	ON CONFLICT (semester_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id`
	if err := tx.GetContext(ctx, &out.TypeID, typeQuery, uuid.NewString(), out.SemesterID, path.Type, path.TypeDisplay); err != nil {
		return nil, fmt.Errorf("resolve document type: %w", err)
	}

	const subjectQuery = `INSERT INTO subjects (id, semester_id, type_id, name) VALUES ($1, $2, $3, $4)
	ON CONFLICT (type_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id`
	if err := tx.GetContext(ctx, &out.SubjectID, subjectQuery, uuid.NewString(), out.SemesterID, out.TypeID, path.Subject); err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	const yearQuery = `INSERT INTO years (id, semester_id, type_id, subject_id, year) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (subject_id, year) DO UPDATE SET year = EXCLUDED.year RETURNING id`
	if err := tx.GetContext(ctx, &out.YearID, yearQuery, uuid.NewString(), out.SemesterID, out.TypeID, out.SubjectID, path.Year); err != nil {
		return nil, fmt.Errorf("resolve year: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve hierarchy: %w", err)
	}
	return &out, nil
}

// Ping verifies database connectivity.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
