package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/repository"
)

const (
	defaultStudentPageSize = 20
	maxStudentPageSize     = 100
)

// ErrAdminStudentNotFound indicates the student was not found for admin operations.
var ErrAdminStudentNotFound = errors.New("admin student not found")

// PendingCounter reports unexpired temporary admissions.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int64, error)
}

// AdminStudentService exposes admitted students and the admission backlog to staff.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	PendingAdmissions(ctx context.Context) (dto.PendingAdmissionsResponse, error)
}

type adminStudentService struct {
	students repository.StudentRepository
	pending  PendingCounter
	counters repository.CounterRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminStudentService constructs the admin student service.
func NewAdminStudentService(students repository.StudentRepository, pending PendingCounter, counters repository.CounterRepository, logger zerolog.Logger) AdminStudentService {
	return &adminStudentService{
		students: students,
		pending:  pending,
		counters: counters,
		logger:   logger.With().Str("component", "admin_student_service").Logger(),
		now:      time.Now,
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.StudentListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultStudentPageSize
	case pageSize > maxStudentPageSize:
		pageSize = maxStudentPageSize
	}

	students, total, err := s.students.List(ctx, repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Standard: strings.TrimSpace(req.Standard),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}

	return dto.StudentListResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
	}, nil
}

func (s *adminStudentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrAdminStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *adminStudentService) PendingAdmissions(ctx context.Context) (dto.PendingAdmissionsResponse, error) {
	total, err := s.pending.PendingCount(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count pending admissions")
		return dto.PendingAdmissionsResponse{}, err
	}
	response := dto.PendingAdmissionsResponse{Pending: total}
	if s.counters == nil {
		return response, nil
	}

	issued, err := s.counters.Current(ctx, registrationCounterName(s.now().UTC()))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		s.logger.Error().Err(err).Msg("failed to read registration counter")
		return dto.PendingAdmissionsResponse{}, err
	default:
		response.IssuedThisYear = issued
	}
	return response, nil
}
