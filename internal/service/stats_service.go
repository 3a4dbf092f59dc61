package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
	"github.com/noah-isme/univ-archive/pkg/export"
)

type statsStore interface {
	Totals(ctx context.Context) (*models.ArchiveTotals, error)
	GroupBy(ctx context.Context, grouping string) ([]models.StatBucket, error)
}

// ExportedReport is a rendered statistics document.
type ExportedReport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StatsService aggregates archive statistics.
type StatsService struct {
	repo    statsStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(repo statsStore, metrics *MetricsService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Stats loads totals and per-semester, per-type and per-provider breakdowns concurrently.
func (s *StatsService) Stats(ctx context.Context) (*models.Stats, error) {
	var (
		totals     *models.ArchiveTotals
		bySemester []models.StatBucket
		byType     []models.StatBucket
		byProvider []models.StatBucket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.repo.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		bySemester, err = s.repo.GroupBy(gctx, "semester")
		return err
	})
	g.Go(func() (err error) {
		byType, err = s.repo.GroupBy(gctx, "type")
		return err
	})
	g.Go(func() (err error) {
		byProvider, err = s.repo.GroupBy(gctx, "provider")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "échec du calcul des statistiques")
	}

	snapshot := s.metrics.Snapshot()
	stats := &models.Stats{
		BySemester:  nonNil(bySemester),
		ByType:      nonNil(byType),
		ByProvider:  nonNil(byProvider),
		System:      &snapshot,
		GeneratedAt: s.now().UTC(),
	}
	if totals != nil {
		stats.ArchiveTotals = *totals
	}
	return stats, nil
}

// Export renders the statistics as csv or pdf.
func (s *StatsService) Export(ctx context.Context, format string) (*ExportedReport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format d'export non supporté")
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(StatsReport(stats))
	if err != nil {
		return nil, appErrors.Internal(err, "échec de la génération de l'export")
	}
	s.logger.Info("stats exported", zap.String("format", renderer.Extension()), zap.Int("bytes", len(data)))
	return &ExportedReport{
		Filename:    fmt.Sprintf("archive-stats-%s.%s", stats.GeneratedAt.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// StatsReport lays statistics out as export tables.
func StatsReport(stats *models.Stats) export.Report {
	summary := export.Table{
		Title:   "Résumé",
		Headers: []string{"Indicateur", "Valeur"},
		Rows: [][]string{
			{"Fichiers", strconv.FormatInt(stats.TotalFiles, 10)},
			{"Taille totale (octets)", strconv.FormatInt(stats.TotalSize, 10)},
			{"Semestres", strconv.FormatInt(stats.TotalSemesters, 10)},
			{"Types", strconv.FormatInt(stats.TotalTypes, 10)},
			{"Matières", strconv.FormatInt(stats.TotalSubjects, 10)},
			{"Années", strconv.FormatInt(stats.TotalYears, 10)},
		},
	}
	return export.Report{
		Title: "Statistiques de l'archive",
		Tables: []export.Table{
			summary,
			bucketTable("Par semestre", "Semestre", stats.BySemester),
			bucketTable("Par type", "Type", stats.ByType),
			bucketTable("Par stockage", "Stockage", stats.ByProvider),
		},
	}
}

func bucketTable(title, label string, buckets []models.StatBucket) export.Table {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Name, strconv.FormatInt(b.Count, 10), strconv.FormatInt(b.Size, 10)})
	}
	return export.Table{Title: title, Headers: []string{label, "Fichiers", "Taille (octets)"}, Rows: rows}
}

func nonNil(buckets []models.StatBucket) []models.StatBucket {
	if buckets == nil {
		return []models.StatBucket{}
	}
	return buckets
}
