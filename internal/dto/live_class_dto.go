package dto

import (
	"time"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// ScheduleLiveClassRequest creates a live class.
type ScheduleLiveClassRequest struct {
	Title           string    `json:"title" validate:"required,max=255"`
	Standard        string    `json:"standard" validate:"required,max=20"`
	RoomName        string    `json:"roomName" validate:"required,max=128"`
	StartsAt        time.Time `json:"startsAt" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"required,min=5,max=480"`
}

// LiveClassResponse is a scheduled class.
type LiveClassResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Standard        string    `json:"standard"`
	RoomName        string    `json:"roomName"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
	DurationMinutes int       `json:"durationMinutes"`
}

// NewLiveClassResponse maps a live class.
func NewLiveClassResponse(class models.LiveClass) LiveClassResponse {
	return LiveClassResponse{
		ID:              class.ID,
		Title:           class.Title,
		Standard:        class.Standard,
		RoomName:        class.RoomName,
		StartsAt:        class.StartsAt,
		EndsAt:          class.EndsAt(),
		DurationMinutes: class.DurationMinutes,
	}
}

// AttendanceResponse is a join/leave bookkeeping row.
type AttendanceResponse struct {
	ID              uint       `json:"id"`
	LiveClassID     uint       `json:"liveClassId"`
	RoomName        string     `json:"roomName,omitempty"`
	JoinedAt        time.Time  `json:"joinedAt"`
	LeftAt          *time.Time `json:"leftAt"`
	DurationSeconds int        `json:"durationSeconds"`
}

// NewAttendanceResponse maps an attendance row.
func NewAttendanceResponse(attendance models.LiveClassAttendance) AttendanceResponse {
	return AttendanceResponse{
		ID:              attendance.ID,
		LiveClassID:     attendance.LiveClassID,
		JoinedAt:        attendance.JoinedAt,
		LeftAt:          attendance.LeftAt,
		DurationSeconds: attendance.DurationSeconds,
	}
}
