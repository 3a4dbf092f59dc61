package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-archive/internal/models"
)

const fileColumns = `f.id, f.original_name, f.file_size, f.mime_type, f.file_path, f.storage_provider,
       f.uploaded_at, f.updated_at, f.deleted_at, f.year_id, y.subject_id, y.type_id, y.semester_id,
       s.name AS semester_name, t.name AS type_name, sub.name AS subject_name, y.year AS year_label`

const fileJoins = ` FROM files f
	JOIN years y ON y.id = f.year_id
	JOIN subjects sub ON sub.id = y.subject_id
	JOIN document_types t ON t.id = y.type_id
	JOIN semesters s ON s.id = y.semester_id`

// FileRepository handles archived file metadata persistence.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs the repository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create stores metadata for an uploaded file.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if file.UploadedAt.IsZero() {
		file.UploadedAt = now
	}
	file.UpdatedAt = file.UploadedAt
	const query = `INSERT INTO files
	(id, year_id, original_name, file_size, mime_type, file_path, storage_provider, uploaded_at, updated_at)
	VALUES (:id, :year_id, :original_name, :file_size, :mime_type, :file_path, :storage_provider, :uploaded_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// GetByID retrieves one active file with its hierarchy names.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + fileJoins + ` WHERE f.id = $1 AND f.deleted_at IS NULL`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

// List returns active files matching filter, newest first.
func (r *FileRepository) List(ctx context.Context, filter models.FileFilter) ([]models.File, error) {
	where, args := buildFileFilter(filter)
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + fileColumns + fileJoins)
	builder.WriteString(where)
	builder.WriteString(" ORDER BY f.uploaded_at DESC, f.id")
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset))
	}

	files := make([]models.File, 0)
	if err := r.db.SelectContext(ctx, &files, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Count returns the number of active files matching filter, ignoring paging.
func (r *FileRepository) Count(ctx context.Context, filter models.FileFilter) (int, error) {
	where, args := buildFileFilter(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+fileJoins+where, args...); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

// likeEscaper keeps LIKE wildcards in user input literal.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func buildFileFilter(filter models.FileFilter) (string, []interface{}) {
	conditions := []string{"f.deleted_at IS NULL"}
	args := make([]interface{}, 0, 4)
	if filter.YearID != "" {
		args = append(args, filter.YearID)
		conditions = append(conditions, fmt.Sprintf("f.year_id = $%d", len(args)))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("s.name = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("t.name = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		conditions = append(conditions, fmt.Sprintf(`(f.original_name ILIKE $%d ESCAPE '\' OR sub.name ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Update applies the non-nil fields of update to an active file.
func (r *FileRepository) Update(ctx context.Context, id string, update models.FileUpdate) error {
	const query = `UPDATE files SET original_name = COALESCE($2, original_name), year_id = COALESCE($3, year_id), updated_at = $4
	WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, update.OriginalName, update.YearID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return expectAffected(res, "update file")
}

// SoftDelete marks a file as deleted.
func (r *FileRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE files SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete file: %w", err)
	}
	return expectAffected(res, "soft delete file")
}

// Totals returns the archive headline counters.
func (r *FileRepository) Totals(ctx context.Context) (*models.ArchiveTotals, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM files WHERE deleted_at IS NULL) AS total_files,
	(SELECT COALESCE(SUM(file_size), 0) FROM files WHERE deleted_at IS NULL) AS total_size,
	(SELECT COUNT(*) FROM semesters) AS total_semesters,
	(SELECT COUNT(*) FROM document_types) AS total_types,
	(SELECT COUNT(*) FROM subjects) AS total_subjects,
	(SELECT COUNT(*) FROM years) AS total_years`
	var totals models.ArchiveTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("archive totals: %w", err)
	}
	return &totals, nil
}

// Stat groupings accepted by GroupBy.
const (
	GroupBySemester = "semester"
	GroupByType     = "type"
	GroupByProvider = "provider"
)

var groupColumns = map[string]string{
	GroupBySemester: "s.name",
	GroupByType:     "t.name",
	GroupByProvider: "f.storage_provider",
}

// GroupBy aggregates active files by one grouping.
func (r *FileRepository) GroupBy(ctx context.Context, grouping string) ([]models.StatBucket, error) {
	column, ok := groupColumns[grouping]
	if !ok {
		return nil, fmt.Errorf("unsupported grouping %q", grouping)
	}
	query := fmt.Sprintf(`SELECT %s AS name, COUNT(f.id) AS count, COALESCE(SUM(f.file_size), 0) AS size%s
	WHERE f.deleted_at IS NULL GROUP BY %s ORDER BY %s`, column, fileJoins, column, column)
	buckets := make([]models.StatBucket, 0)
	if err := r.db.SelectContext(ctx, &buckets, query); err != nil {
		return nil, fmt.Errorf("group files by %s: %w", grouping, err)
	}
	return buckets, nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
