package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// SubmissionTx exposes the mutations used by the verification workflow. All
// methods run inside the transaction opened by Atomically, so the submission
// update and the ledger insert commit or roll back as a unit.
type SubmissionTx interface {
	LockSubmission(id uint) (models.Submission, error)
	Save(submission *models.Submission) error
	InsertLedgerOnce(entry *models.PointLedger) (bool, error)
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListPending(ctx context.Context, excludeUserID uint) ([]models.Submission, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Atomically(ctx context.Context, fn func(tx SubmissionTx) error) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Activity").
		Preload("Student").
		Preload("Student.User")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListPending(ctx context.Context, excludeUserID uint) ([]models.Submission, error) {
	query := r.baseQuery(ctx).Where("submissions.status = ?", models.SubmissionStatusPending)

	if excludeUserID != 0 {
		query = query.Where(
			"submissions.student_id NOT IN (?)",
			r.db.Model(&models.Student{}).Select("id").Where("user_id = ?", excludeUserID),
		)
	}

	var submissions []models.Submission
	if err := query.Order("submissions.created_at ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("submissions.student_id = ?", studentID).
		Order("submissions.created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Atomically(ctx context.Context, fn func(tx SubmissionTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&submissionTx{db: tx})
	})
}

type submissionTx struct {
	db *gorm.DB
}

func (t *submissionTx) LockSubmission(id uint) (models.Submission, error) {
	var submission models.Submission
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	if err := t.db.First(&submission.Activity, submission.ActivityID).Error; err != nil {
		return models.Submission{}, err
	}
	if err := t.db.First(&submission.Student, submission.StudentID).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (t *submissionTx) Save(submission *models.Submission) error {
	return t.db.Save(submission).Error
}

// InsertLedgerOnce appends a ledger entry unless one already exists for the
// same (source, reference_id) pair. The unique index is the authoritative
// idempotency barrier; ON CONFLICT DO NOTHING absorbs the losing writer.
func (t *submissionTx) InsertLedgerOnce(entry *models.PointLedger) (bool, error) {
	result := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "reference_id"}},
		DoNothing: true,
	}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
