package models

import "time"

// LiveClass is a scheduled video session for one standard.
type LiveClass struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Standard        string    `gorm:"size:32;index;not null" json:"standard"`
	RoomName        string    `gorm:"size:128;not null" json:"room_name"`
	StartsAt        time.Time `gorm:"index;not null" json:"starts_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EndsAt returns the scheduled end of the class.
func (l LiveClass) EndsAt() time.Time {
	return l.StartsAt.Add(time.Duration(l.DurationMinutes) * time.Minute)
}

// LiveClassAttendance records a student's presence in a live class.
type LiveClassAttendance struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	LiveClassID     uint       `gorm:"index;not null" json:"live_class_id"`
	StudentID       uint       `gorm:"index;not null" json:"student_id"`
	JoinedAt        time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt          *time.Time `json:"left_at"`
	DurationSeconds int        `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
