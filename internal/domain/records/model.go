package records

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeAllergy    = "ALLERGY"
	TypeCondition  = "CONDITION"
	TypeMedication = "MEDICATION"
	TypeProcedure  = "PROCEDURE"
	TypeLabResult  = "LAB_RESULT"
)

const (
	StatusActive   = "ACTIVE"
	StatusChronic  = "CHRONIC"
	StatusResolved = "RESOLVED"
)

// Record maps to the medical_record table.
type Record struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	RecordType string    `db:"record_type" json:"record_type"`
	Title      string    `db:"title" json:"title"`
	Status     string    `db:"status" json:"status"`
	IsDeleted  bool      `db:"is_deleted" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MedicalContext is what the prescription engine needs to know about a
// patient's history.
type MedicalContext struct {
	Allergies   []string `json:"allergies"`
	Conditions  []string `json:"conditions"`
	RecordCount int      `json:"record_count"`
}
