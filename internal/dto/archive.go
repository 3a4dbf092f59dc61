package dto

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// UploadForm contains the hierarchy fields submitted alongside a PDF.
type UploadForm struct {
	Semester string `form:"semester"`
	Type     string `form:"type"`
	Subject  string `form:"subject"`
	Year     string `form:"year"`
}

// UpdateFileRequest edits a file. Omitted fields are left unchanged; hierarchy
// fields move the file and must be given together with the ones they depend on.
type UpdateFileRequest struct {
	OriginalName *string `json:"originalName" validate:"omitempty,min=1,max=255"`
	Semester     *string `json:"semester" validate:"omitempty,min=1"`
	Type         *string `json:"type" validate:"omitempty,min=1"`
	Subject      *string `json:"subject" validate:"omitempty,min=1"`
	Year         *string `json:"year" validate:"omitempty,min=1"`
}

// MovesHierarchy reports whether any hierarchy field is present.
func (r UpdateFileRequest) MovesHierarchy() bool {
	return r.Semester != nil || r.Type != nil || r.Subject != nil || r.Year != nil
}

// FileListQuery captures admin listing query parameters.
type FileListQuery struct {
	Search   string `form:"search"`
	Semester string `form:"semester"`
	Type     string `form:"type"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
