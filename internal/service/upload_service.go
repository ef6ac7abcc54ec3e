package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/internal/repository"
)

var (
	// ErrPhotoRequired indicates the admission form arrived without a photo.
	ErrPhotoRequired = errors.New("applicant photo is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// StoredPhoto describes a photo accepted into the asset store.
type StoredPhoto struct {
	URL       string
	MimeType  string
	SizeBytes int64
	Checksum  string
}

// PhotoService validates applicant photos and pushes them to the asset store.
type PhotoService interface {
	Store(ctx context.Context, file *multipart.FileHeader, ownerRef string) (StoredPhoto, error)
}

type photoService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewPhotoService constructs the applicant photo intake.
func NewPhotoService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) PhotoService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &photoService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "photo_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/risetutor-api/internal/service/photo"),
	}
}

func (s *photoService) Store(ctx context.Context, file *multipart.FileHeader, ownerRef string) (StoredPhoto, error) {
	ctx, span := s.tracer.Start(ctx, "photo.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.SetStatus(codes.Error, "photo missing")
		return StoredPhoto{}, ErrPhotoRequired
	}

	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
		attribute.Int64("upload.max_bytes", s.maxSize),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return StoredPhoto{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return StoredPhoto{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return StoredPhoto{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return StoredPhoto{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	ext, ok := allowedPhotoTypes[detected]
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if !ok {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return StoredPhoto{}, ErrUploadTypeNotAllowed
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := sanitizeFileName(file.Filename, ext)

	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return StoredPhoto{}, err
	}

	record := models.UploadRecord{
		Purpose:   models.UploadPurposeApplicantPhoto,
		OwnerRef:  ownerRef,
		FileName:  name,
		URL:       url,
		MimeType:  detected,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return StoredPhoto{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	s.logger.Debug().Str("owner_ref", ownerRef).Int64("size_bytes", record.SizeBytes).Msg("applicant photo stored")

	return StoredPhoto{
		URL:       url,
		MimeType:  detected,
		SizeBytes: record.SizeBytes,
		Checksum:  record.Checksum,
	}, nil
}

// sanitizeFileName lower-cases the base name and swaps the extension for the sniffed one.
func sanitizeFileName(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("photo-%d", time.Now().Unix())
	}
	return base + ext
}
