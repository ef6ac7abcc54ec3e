package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded for staff operations.
const (
	ActivityTestCreated        = "test.created"
	ActivityTestStatusChanged  = "test.status_changed"
	ActivityAnswerGraded       = "test.answer_graded"
	ActivityLiveClassScheduled = "live_class.scheduled"
)

// Audited entity types.
const (
	ActivityEntityTest       = "test"
	ActivityEntityTestResult = "test_result"
	ActivityEntityLiveClass  = "live_class"
)

// ActivityLog captures auditable events triggered by administrators.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
