package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/observability"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

// VerificationService resolves pending submissions. Approval issues exactly
// one ledger grant per submission; the ledger's (source, reference_id)
// uniqueness is the authoritative idempotency barrier.
type VerificationService interface {
	Approve(ctx context.Context, submissionID uint, actor Actor, payload dto.VerifyRequest) (dto.SubmissionResponse, error)
	Reject(ctx context.Context, submissionID uint, actor Actor, payload dto.VerifyRequest) (dto.SubmissionResponse, error)
	PendingQueue(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error)
}

type verificationService struct {
	repo      repository.SubmissionRepository
	validator *validator.Validate
	audit     AuditRecorder
	notifier  DomainNotifier
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewVerificationService constructs the verification workflow service.
func NewVerificationService(repo repository.SubmissionRepository, validate *validator.Validate, audit AuditRecorder, notifier DomainNotifier, logger zerolog.Logger) VerificationService {
	return &verificationService{
		repo:      repo,
		validator: validate,
		audit:     audit,
		notifier:  notifier,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "verification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-engage-api/internal/service/verification"),
		now:       time.Now,
	}
}

// SubmissionReference builds the ledger reference that ties a grant to its
// submission.
func SubmissionReference(submissionID uint) string {
	return fmt.Sprintf("submission:%d", submissionID)
}

func (s *verificationService) Approve(ctx context.Context, submissionID uint, actor Actor, payload dto.VerifyRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "verification.approve")
	span.SetAttributes(
		attribute.Int64("verification.submission_id", int64(submissionID)),
		attribute.Int64("verification.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment))

	var (
		submission models.Submission
		awarded    bool
		points     int
	)

	err := s.repo.Atomically(ctx, func(tx repository.SubmissionTx) error {
		locked, err := tx.LockSubmission(submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if !actor.CanVerify(locked.StudentID) {
			return ErrNotAuthorized
		}

		if locked.Status == models.SubmissionStatusApproved {
			// Idempotent: keep the original reviewer and timestamp, no
			// further side effects. The ledger guard below would absorb a
			// racing duplicate anyway.
			submission = locked
			return nil
		}

		locked.Status = models.SubmissionStatusApproved
		reviewer := actor.ID
		locked.VerifiedBy = &reviewer
		verifiedAt := s.now()
		locked.VerifiedAt = &verifiedAt
		if comment != "" {
			locked.Comment = comment
		}

		if err := tx.Save(&locked); err != nil {
			return err
		}

		points = locked.Activity.Points()
		entry := models.PointLedger{
			UserID:      locked.Student.UserID,
			ActivityID:  locked.ActivityID,
			Points:      points,
			Source:      models.LedgerSourceSubmission,
			ReferenceID: SubmissionReference(locked.ID),
		}

		inserted, err := tx.InsertLedgerOnce(&entry)
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent approval won the ledger insert; absorb it.
			s.logger.Warn().
				Uint("submission_id", locked.ID).
				Msg("ledger entry already present, duplicate award absorbed")
		}

		awarded = inserted
		submission = locked
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approve_failed")
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Bool("verification.awarded", awarded))

	if awarded {
		observability.PointsAwarded().WithLabelValues(models.LedgerSourceSubmission).Add(float64(points))

		if s.notifier != nil {
			s.notifier.PointsAwarded(submission.Student.UserID, submission.ActivityID, points, SubmissionReference(submission.ID))
		}

		if s.audit != nil {
			entityID := submission.ID
			_ = s.audit.Record(ctx, AuditEntry{
				ActorID:    actor.ID,
				ActorName:  actor.DisplayName,
				ActorRole:  actor.Role(),
				Action:     "submission.approved",
				EntityType: "submission",
				EntityID:   &entityID,
				Metadata: map[string]interface{}{
					"student_id":  submission.StudentID,
					"activity_id": submission.ActivityID,
					"points":      points,
				},
			})
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

// Reject resolves the submission without any ledger effect. Re-rejecting an
// already resolved submission overwrites reviewer, timestamp and comment,
// matching the permissive rejection contract.
func (s *verificationService) Reject(ctx context.Context, submissionID uint, actor Actor, payload dto.VerifyRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "verification.reject")
	span.SetAttributes(
		attribute.Int64("verification.submission_id", int64(submissionID)),
		attribute.Int64("verification.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment))

	var submission models.Submission
	err := s.repo.Atomically(ctx, func(tx repository.SubmissionTx) error {
		locked, err := tx.LockSubmission(submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if !actor.CanVerify(locked.StudentID) {
			return ErrNotAuthorized
		}

		locked.Status = models.SubmissionStatusRejected
		reviewer := actor.ID
		locked.VerifiedBy = &reviewer
		verifiedAt := s.now()
		locked.VerifiedAt = &verifiedAt
		if comment != "" {
			locked.Comment = comment
		}

		if err := tx.Save(&locked); err != nil {
			return err
		}

		submission = locked
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reject_failed")
		return dto.SubmissionResponse{}, err
	}

	if s.audit != nil {
		entityID := submission.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role(),
			Action:     "submission.rejected",
			EntityType: "submission",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"student_id":  submission.StudentID,
				"activity_id": submission.ActivityID,
			},
		})
	}

	return dto.NewSubmissionResponse(submission), nil
}

// PendingQueue lists submissions awaiting review, excluding the reviewer's
// own.
func (s *verificationService) PendingQueue(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error) {
	if !actor.Elevated && !actor.Volunteer {
		return nil, ErrNotAuthorized
	}

	submissions, err := s.repo.ListPending(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}
