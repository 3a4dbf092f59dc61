package models

import "time"

// File is one archived PDF document.
type File struct {
	ID              string     `db:"id" json:"_id"`
	OriginalName    string     `db:"original_name" json:"originalName"`
	FileSize        int64      `db:"file_size" json:"fileSize"`
	MimeType        string     `db:"mime_type" json:"mimeType"`
	FilePath        string     `db:"file_path" json:"filePath"`
	StorageProvider string     `db:"storage_provider" json:"storageProvider"`
	UploadedAt      time.Time  `db:"uploaded_at" json:"uploadedAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`

	YearID     string `db:"year_id" json:"yearId"`
	SubjectID  string `db:"subject_id" json:"subjectId"`
	TypeID     string `db:"type_id" json:"typeId"`
	SemesterID string `db:"semester_id" json:"semesterId"`

	Semester string `db:"semester_name" json:"semester"`
	Type     string `db:"type_name" json:"type"`
	Subject  string `db:"subject_name" json:"subject"`
	Year     string `db:"year_label" json:"year"`

	ViewURL     string `db:"-" json:"viewUrl"`
	DownloadURL string `db:"-" json:"downloadUrl"`
}

// FileFilter narrows file listings.
type FileFilter struct {
	YearID   string
	Semester string
	Type     string
	Search   string
	Limit    int
	Offset   int
}

// FileUpdate lists the mutable columns of a file row.
type FileUpdate struct {
	OriginalName *string
	YearID       *string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ShareLink is a time limited public URL for one file.
type ShareLink struct {
	FileID    string    `json:"fileId"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
