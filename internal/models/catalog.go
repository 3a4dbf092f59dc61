package models

import "time"

// Semester is the root of the archive hierarchy.
type Semester struct {
	ID          string    `db:"id" json:"_id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"displayName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// DocumentType is a category of documents scoped to a semester.
type DocumentType struct {
	ID          string    `db:"id" json:"_id"`
	SemesterID  string    `db:"semester_id" json:"semester"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"displayName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Subject is a course scoped to a semester and document type.
type Subject struct {
	ID         string    `db:"id" json:"_id"`
	SemesterID string    `db:"semester_id" json:"semester"`
	TypeID     string    `db:"type_id" json:"type"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Year is an academic year scoped to a subject.
type Year struct {
	ID         string    `db:"id" json:"_id"`
	SemesterID string    `db:"semester_id" json:"semester"`
	TypeID     string    `db:"type_id" json:"type"`
	SubjectID  string    `db:"subject_id" json:"subject"`
	Year       string    `db:"year" json:"year"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Document type names accepted by the archive.
const (
	TypeCours        = "cours"
	TypeTP           = "tp"
	TypeTD           = "td"
	TypeDevoirs      = "devoirs"
	TypeCompositions = "compositions"
	TypeRatrapages   = "ratrapages"
)

// DocumentTypeNames lists the accepted type names in display order.
var DocumentTypeNames = []string{TypeCours, TypeTP, TypeTD, TypeDevoirs, TypeCompositions, TypeRatrapages}

var documentTypeLabels = map[string]string{
	TypeCours:        "Cours",
	TypeTP:           "Travaux Pratiques",
	TypeTD:           "Travaux Dirigés",
	TypeDevoirs:      "Devoirs",
	TypeCompositions: "Compositions",
	TypeRatrapages:   "Rattrapages",
}

// DocumentTypeLabel returns the display name for a type name, and false for unknown names.
func DocumentTypeLabel(name string) (string, bool) {
	label, ok := documentTypeLabels[name]
	return label, ok
}

// HierarchyPath names one position in the archive tree.
type HierarchyPath struct {
	Semester        string
	SemesterDisplay string
	Type            string
	TypeDisplay     string
	Subject         string
	Year            string
}

// ResolvedHierarchy carries the IDs of a resolved HierarchyPath.
type ResolvedHierarchy struct {
	SemesterID string
	TypeID     string
	SubjectID  string
	YearID     string
}
