package dto

import (
	"time"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// AdminStudentListRequest defines filters for listing admitted students.
type AdminStudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Standard string
}

// StudentResponse serialises a permanent student record without its password.
type StudentResponse struct {
	ID             uint       `json:"id"`
	RegistrationID string     `json:"registrationId"`
	StudentName    string     `json:"studentName"`
	FatherName     string     `json:"fatherName"`
	MotherName     string     `json:"motherName"`
	DateOfBirth    string     `json:"dateOfBirth"`
	Gender         string     `json:"gender"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	Standard       string     `json:"standard"`
	SchoolName     string     `json:"schoolName"`
	PhotoURL       string     `json:"photoUrl"`
	PaymentStatus  string     `json:"paymentStatus"`
	PaymentAmount  int64      `json:"paymentAmount"`
	OrderID        string     `json:"orderId"`
	PaymentID      string     `json:"paymentId"`
	AdmittedAt     *time.Time `json:"admittedAt"`
}

// NewStudentResponse maps a student model.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:             student.ID,
		RegistrationID: student.RegistrationID,
		StudentName:    student.StudentName,
		FatherName:     student.FatherName,
		MotherName:     student.MotherName,
		DateOfBirth:    student.DateOfBirth.Format("2006-01-02"),
		Gender:         student.Gender,
		Email:          student.Email,
		Phone:          student.Phone,
		Address:        student.Address,
		Standard:       student.Standard,
		SchoolName:     student.SchoolName,
		PhotoURL:       student.PhotoURL,
		PaymentStatus:  student.PaymentStatus,
		PaymentAmount:  student.PaymentAmount,
		OrderID:        student.OrderID,
		PaymentID:      student.PaymentID,
		AdmittedAt:     student.AdmittedAt,
	}
}

// StudentListResponse is a page of students.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalItems int64             `json:"totalItems"`
}

// AdminActivityListRequest filters the audit trail.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AdminActivityResponse is a single audit entry.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actorId"`
	ActorRole  string                 `json:"actorRole"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   *uint                  `json:"entityId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// NewAdminActivityResponse maps an audit entry to its response.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// AdminActivityListResponse is a page of audit entries.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalItems int64                   `json:"totalItems"`
}
