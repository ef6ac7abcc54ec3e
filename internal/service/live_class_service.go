package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/internal/repository"
)

// joinLeadTime is how early students may enter a room before the scheduled start.
const joinLeadTime = 15 * time.Minute

var (
	// ErrLiveClassNotFound indicates the class does not exist.
	ErrLiveClassNotFound = errors.New("live class not found")
	// ErrLiveClassClosed indicates the class is not open for joining.
	ErrLiveClassClosed = errors.New("live class is not open")
	// ErrNotJoined indicates the student has no open attendance for the class.
	ErrNotJoined = errors.New("not currently in this live class")
)

// LiveClassService handles scheduling and attendance bookkeeping.
type LiveClassService interface {
	Schedule(ctx context.Context, adminID uint, req dto.ScheduleLiveClassRequest) (dto.LiveClassResponse, error)
	ListUpcoming(ctx context.Context, standard string) ([]dto.LiveClassResponse, error)
	Join(ctx context.Context, classID uint, student StudentIdentity) (dto.AttendanceResponse, error)
	Leave(ctx context.Context, classID uint, student StudentIdentity) (dto.AttendanceResponse, error)
}

type liveClassService struct {
	repo      repository.LiveClassRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewLiveClassService constructs the live class service.
func NewLiveClassService(repo repository.LiveClassRepository, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) LiveClassService {
	return &liveClassService{
		repo:      repo,
		activity:  activity,
		validator: validator,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "live_class_service").Logger(),
		now:       time.Now,
	}
}

func (s *liveClassService) Schedule(ctx context.Context, adminID uint, req dto.ScheduleLiveClassRequest) (dto.LiveClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LiveClassResponse{}, err
	}

	class := models.LiveClass{
		Title:           cleanText(s.sanitizer, req.Title),
		Standard:        strings.TrimSpace(req.Standard),
		RoomName:        strings.TrimSpace(req.RoomName),
		StartsAt:        req.StartsAt.UTC(),
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.repo.Create(ctx, &class); err != nil {
		return dto.LiveClassResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    adminID,
		Action:     models.ActivityLiveClassScheduled,
		EntityType: models.ActivityEntityLiveClass,
		EntityID:   uintPtr(class.ID),
		Metadata:   map[string]interface{}{"standard": class.Standard, "room": class.RoomName},
	})
	s.logger.Info().Uint("class_id", class.ID).Str("standard", class.Standard).Time("starts_at", class.StartsAt).Msg("live class scheduled")
	return dto.NewLiveClassResponse(class), nil
}

func (s *liveClassService) ListUpcoming(ctx context.Context, standard string) ([]dto.LiveClassResponse, error) {
	classes, err := s.repo.ListUpcoming(ctx, strings.TrimSpace(standard), s.now().UTC())
	if err != nil {
		return nil, err
	}

	items := make([]dto.LiveClassResponse, 0, len(classes))
	for _, class := range classes {
		items = append(items, dto.NewLiveClassResponse(class))
	}
	return items, nil
}

// Join records attendance. A student already in the room gets the open row back.
func (s *liveClassService) Join(ctx context.Context, classID uint, student StudentIdentity) (dto.AttendanceResponse, error) {
	class, err := s.load(ctx, classID, student)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}

	existing, err := s.repo.OpenAttendance(ctx, class.ID, student.ID)
	if err == nil {
		return s.attendanceResponse(existing, class), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	if now.Before(class.StartsAt.Add(-joinLeadTime)) || !now.Before(class.EndsAt()) {
		return dto.AttendanceResponse{}, ErrLiveClassClosed
	}

	attendance := models.LiveClassAttendance{
		LiveClassID: class.ID,
		StudentID:   student.ID,
		JoinedAt:    now,
	}
	if err := s.repo.CreateAttendance(ctx, &attendance); err != nil {
		return dto.AttendanceResponse{}, err
	}

	observability.LiveClassJoins().Inc()
	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", student.ID).Msg("student joined live class")
	return s.attendanceResponse(attendance, class), nil
}

func (s *liveClassService) Leave(ctx context.Context, classID uint, student StudentIdentity) (dto.AttendanceResponse, error) {
	class, err := s.load(ctx, classID, student)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}

	attendance, err := s.repo.OpenAttendance(ctx, class.ID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, ErrNotJoined
		}
		return dto.AttendanceResponse{}, err
	}

	left := s.now().UTC()
	attendance.LeftAt = &left
	attendance.DurationSeconds = int(left.Sub(attendance.JoinedAt).Seconds())
	if attendance.DurationSeconds < 0 {
		attendance.DurationSeconds = 0
	}
	if err := s.repo.UpdateAttendance(ctx, &attendance); err != nil {
		return dto.AttendanceResponse{}, err
	}

	s.logger.Info().
		Uint("class_id", class.ID).
		Uint("student_id", student.ID).
		Int("seconds", attendance.DurationSeconds).
		Msg("student left live class")
	return s.attendanceResponse(attendance, class), nil
}

func (s *liveClassService) load(ctx context.Context, classID uint, student StudentIdentity) (models.LiveClass, error) {
	class, err := s.repo.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LiveClass{}, ErrLiveClassNotFound
		}
		return models.LiveClass{}, err
	}
	if class.Standard != student.Standard {
		return models.LiveClass{}, ErrForbidden
	}
	return class, nil
}

func (s *liveClassService) attendanceResponse(attendance models.LiveClassAttendance, class models.LiveClass) dto.AttendanceResponse {
	resp := dto.NewAttendanceResponse(attendance)
	resp.RoomName = class.RoomName
	return resp
}
