package models

import "time"

// StatBucket aggregates file counts and sizes for one grouping key.
type StatBucket struct {
	Name  string `db:"name" json:"name"`
	Count int64  `db:"count" json:"count"`
	Size  int64  `db:"size" json:"totalSize"`
}

// ArchiveTotals are the headline counters of the archive.
type ArchiveTotals struct {
	TotalFiles     int64 `db:"total_files" json:"totalFiles"`
	TotalSize      int64 `db:"total_size" json:"totalSize"`
	TotalSemesters int64 `db:"total_semesters" json:"totalSemesters"`
	TotalTypes     int64 `db:"total_types" json:"totalTypes"`
	TotalSubjects  int64 `db:"total_subjects" json:"totalSubjects"`
	TotalYears     int64 `db:"total_years" json:"totalYears"`
}

// Stats is the admin statistics payload.
type Stats struct {
	ArchiveTotals
	BySemester  []StatBucket     `json:"bySemester"`
	ByType      []StatBucket     `json:"byType"`
	ByProvider  []StatBucket     `json:"byProvider"`
	System      *MetricsSnapshot `json:"system,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// MetricsSnapshot summarises process level counters kept by the metrics service.
type MetricsSnapshot struct {
	RequestsTotal            uint64  `json:"requestsTotal"`
	AverageRequestDurationMs float64 `json:"averageRequestDurationMs"`
	CacheHits                uint64  `json:"cacheHits"`
	CacheMisses              uint64  `json:"cacheMisses"`
	CacheHitRatio            float64 `json:"cacheHitRatio"`
	Uploads                  uint64  `json:"uploads"`
	Downloads                uint64  `json:"downloads"`
	Goroutines               int     `json:"goroutines"`
}
