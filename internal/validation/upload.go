package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/univ-archive/internal/models"
)

// MaxUploadSize is the default upper bound for one document.
const MaxUploadSize int64 = 50 * 1024 * 1024

// PDFMimeType is the only accepted document type.
const PDFMimeType = "application/pdf"

// Upload messages shown to administrators, one per failure kind.
const (
	MsgMissingSemester = "Veuillez sélectionner un semestre"
	MsgMissingType     = "Veuillez sélectionner un type de document"
	MsgMissingSubject  = "Veuillez indiquer la matière"
	MsgMissingYear     = "Veuillez indiquer l'année"
	MsgMissingFile     = "Veuillez sélectionner un fichier PDF"
	MsgInvalidType     = "Type de document invalide"
	MsgInvalidYear     = "Année invalide (format attendu : 2024 ou 2023-2024)"
	MsgNotPDF          = "Seuls les fichiers PDF sont acceptés"
	MsgEmptyFile       = "Le fichier est vide"
)

// Failure kinds carried by Error.
const (
	KindMissing  = "missing"
	KindInvalid  = "invalid"
	KindMimeType = "mime"
	KindEmpty    = "empty"
	KindTooLarge = "too_large"
)

// Error describes the first rule an upload violates.
type Error struct {
	Field   string
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Upload is the set of fields submitted with a document.
type Upload struct {
	Semester string `validate:"required"`
	Type     string `validate:"required,doctype"`
	Subject  string `validate:"required"`
	Year     string `validate:"required,academicyear"`
	HasFile  bool
	MimeType string
	Size     int64
}

var yearPattern = regexp.MustCompile(`^\d{4}(-\d{4})?$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
			_, ok := models.DocumentTypeLabel(strings.ToLower(strings.TrimSpace(fl.Field().String())))
			return ok
		})
		_ = validate.RegisterValidation("academicyear", func(fl validator.FieldLevel) bool {
			return yearPattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
	})
	return validate
}

var fieldMessages = map[string]map[string]string{
	"Semester": {"required": MsgMissingSemester},
	"Type":     {"required": MsgMissingType, "doctype": MsgInvalidType},
	"Subject":  {"required": MsgMissingSubject},
	"Year":     {"required": MsgMissingYear, "academicyear": MsgInvalidYear},
}

// CheckUpload validates u against the archive rules with maxSize as the size ceiling.
// Rules are checked in form order so the first visible problem is reported.
func CheckUpload(u Upload, maxSize int64) *Error {
	if maxSize <= 0 {
		maxSize = MaxUploadSize
	}
	if err := CheckHierarchy(u.Semester, u.Type, u.Subject, u.Year); err != nil {
		return err
	}
	if !u.HasFile {
		return &Error{Field: "pdf", Kind: KindMissing, Message: MsgMissingFile}
	}
	if !IsPDF(u.MimeType) {
		return &Error{Field: "pdf", Kind: KindMimeType, Message: MsgNotPDF}
	}
	if u.Size <= 0 {
		return &Error{Field: "pdf", Kind: KindEmpty, Message: MsgEmptyFile}
	}
	if u.Size > maxSize {
		return &Error{Field: "pdf", Kind: KindTooLarge, Message: TooLargeMessage(maxSize)}
	}
	return nil
}

// CheckHierarchy validates the four hierarchy fields of an upload or a move.
func CheckHierarchy(semester, docType, subject, year string) *Error {
	u := Upload{
		Semester: strings.TrimSpace(semester),
		Type:     strings.TrimSpace(docType),
		Subject:  strings.TrimSpace(subject),
		Year:     strings.TrimSpace(year),
	}
	err := engine().StructPartial(u, "Semester", "Type", "Subject", "Year")
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		kind := KindInvalid
		if first.Tag() == "required" {
			kind = KindMissing
		}
		return &Error{Field: strings.ToLower(first.Field()), Kind: kind, Message: fieldMessages[first.Field()][first.Tag()]}
	}
	return &Error{Field: "form", Kind: KindInvalid, Message: err.Error()}
}

// IsPDF reports whether a MIME type (parameters allowed) denotes a PDF.
func IsPDF(mimeType string) bool {
	base := strings.TrimSpace(strings.ToLower(strings.SplitN(mimeType, ";", 2)[0]))
	return base == PDFMimeType
}

// TooLargeMessage renders the size ceiling in whole megabytes.
func TooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("Le fichier dépasse la taille maximale de %d MB", maxSize/(1024*1024))
}
