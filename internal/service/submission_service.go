package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

var (
	// ErrEvidenceRequired indicates no evidence file accompanied the submission.
	ErrEvidenceRequired = errors.New("evidence file is required")
	// ErrEvidenceTooLarge indicates the evidence exceeded the configured limit.
	ErrEvidenceTooLarge = errors.New("evidence exceeds maximum allowed size")
	// ErrEvidenceTypeNotAllowed indicates the detected MIME type is not permitted.
	ErrEvidenceTypeNotAllowed = errors.New("evidence file type not allowed")
)

// FileStorage abstracts evidence upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService handles evidence intake for point-earning activities.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, evidence *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	repo       repository.SubmissionRepository
	activities repository.ActivityRepository
	ledger     repository.LedgerRepository
	storage    FileStorage
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	maxSize    int64
	now        func() time.Time
}

// NewSubmissionService constructs the submission intake service.
func NewSubmissionService(repo repository.SubmissionRepository, activities repository.ActivityRepository, ledger repository.LedgerRepository, storage FileStorage, validate *validator.Validate, maxSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}

	return &submissionService{
		repo:       repo,
		activities: activities,
		ledger:     ledger,
		storage:    storage,
		validator:  validate,
		logger:     logger.With().Str("component", "submission_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/campus-engage-api/internal/service/submission"),
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		now:        time.Now,
	}
}

// Create stores the evidence file and opens a pending submission. The monthly
// cap counts ledger grants for the same activity since the start of the
// current month, so rejected attempts never consume the cap.
func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, evidence *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	span.SetAttributes(
		attribute.Int64("submission.activity_id", int64(payload.ActivityID)),
		attribute.Int64("submission.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if actor.StudentID == nil {
		return dto.SubmissionResponse{}, ErrStudentProfileRequired
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, payload.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrActivityNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if activity.MonthlyCapPerStudent != nil {
		monthStart := monthStart(s.now())
		granted, err := s.ledger.CountForActivitySince(ctx, actor.ID, activity.ID, monthStart)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if granted >= int64(*activity.MonthlyCapPerStudent) {
			span.SetAttributes(attribute.Int64("submission.granted_this_month", granted))
			return dto.SubmissionResponse{}, ErrMonthlyCapReached
		}
	}

	var url string
	if evidence == nil {
		if activity.RequiresProof {
			return dto.SubmissionResponse{}, ErrEvidenceRequired
		}
	} else {
		url, err = s.storeEvidence(ctx, evidence)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "evidence_rejected")
			return dto.SubmissionResponse{}, err
		}
	}

	submission := models.Submission{
		StudentID:   *actor.StudentID,
		ActivityID:  activity.ID,
		EventSlotID: payload.EventSlotID,
		EvidenceURL: url,
		Status:      models.SubmissionStatusPending,
	}
	if err := s.repo.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("activity_id", activity.ID).
		Uint("student_id", *actor.StudentID).
		Msg("submission created")

	created, err := s.repo.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.NewSubmissionResponse(submission), nil
	}

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error) {
	if actor.StudentID == nil {
		return nil, ErrStudentProfileRequired
	}

	submissions, err := s.repo.ListForStudent(ctx, *actor.StudentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// storeEvidence validates the upload by sniffing its real content type and
// hands it to the storage backend. Only images and PDFs are accepted.
func (s *submissionService) storeEvidence(ctx context.Context, evidence *multipart.FileHeader) (string, error) {
	if evidence == nil {
		return "", ErrEvidenceRequired
	}

	if evidence.Size > s.maxSize {
		return "", ErrEvidenceTooLarge
	}

	handle, err := evidence.Open()
	if err != nil {
		return "", err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return "", err
	}
	if int64(buf.Len()) > s.maxSize {
		return "", ErrEvidenceTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !isAllowedEvidenceType(mime.String()) {
		s.logger.Warn().
			Str("detected_mime", mime.String()).
			Str("file_name", evidence.Filename).
			Msg("evidence rejected by content sniffing")
		return "", ErrEvidenceTypeNotAllowed
	}

	return s.storage.Upload(ctx, evidence.Filename, bytes.NewReader(buf.Bytes()))
}

func isAllowedEvidenceType(mime string) bool {
	if mime == "application/pdf" {
		return true
	}

	return len(mime) > 6 && mime[:6] == "image/"
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
