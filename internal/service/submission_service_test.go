package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

type storageStub struct {
	uploads int
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.uploads++
	return "https://cdn.example.com/" + name, nil
}

func submissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:submission_svc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Activity{},
		&models.EventSlot{},
		&models.Submission{},
		&models.PointLedger{},
	))

	t.Cleanup(func() {
		db.Exec("DELETE FROM point_ledgers")
		db.Exec("DELETE FROM submissions")
		db.Exec("DELETE FROM event_slots")
		db.Exec("DELETE FROM activities")
		db.Exec("DELETE FROM students")
		db.Exec("DELETE FROM users")
	})

	return db
}

func newSubmissionService(t *testing.T, db *gorm.DB, storage FileStorage, maxSizeMB int) SubmissionService {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewActivityRepository(db),
		repository.NewLedgerRepository(db),
		storage,
		validate,
		maxSizeMB,
		testLogger(),
	)
}

func seedStudent(t *testing.T, db *gorm.DB) models.Student {
	t.Helper()

	user := models.User{Name: "Alva Student", Email: "alva@example.com"}
	require.NoError(t, db.Create(&user).Error)
	student := models.Student{UserID: user.ID, PNR: "990101-1234"}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedActivity(t *testing.T, db *gorm.DB, cap *int) models.Activity {
	t.Helper()

	activity := models.Activity{Title: "Beach cleanup", Tier: 5, RequiresProof: true, MonthlyCapPerStudent: cap}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

func evidenceFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"evidence\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["evidence"]
	require.Len(t, files, 1)
	return files[0]
}

func pngEvidence(t *testing.T) *multipart.FileHeader {
	return evidenceFile(t, "proof.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
}

func TestSubmissionCreate(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := seedActivity(t, db, nil)
	storage := &storageStub{}
	svc := newSubmissionService(t, db, storage, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	resp, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, resp.Status)
	require.Contains(t, resp.EvidenceURL, "proof")
	require.Equal(t, 1, storage.uploads)
}

func TestSubmissionCreateRequiresStudentProfile(t *testing.T) {
	db := submissionTestDB(t)
	activity := seedActivity(t, db, nil)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	_, err := svc.Create(context.Background(), Actor{ID: 1}, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.ErrorIs(t, err, ErrStudentProfileRequired)
}

func TestSubmissionCreateUnknownActivity(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: 99}, pngEvidence(t))
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestSubmissionCreateMonthlyCap(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	cap := 1
	activity := seedActivity(t, db, &cap)
	storage := &storageStub{}
	svc := newSubmissionService(t, db, storage, 5)

	// One grant already issued for this activity this month.
	require.NoError(t, db.Create(&models.PointLedger{
		UserID:      student.UserID,
		ActivityID:  activity.ID,
		Points:      5,
		Source:      models.LedgerSourceSubmission,
		ReferenceID: "submission:100",
		CreatedAt:   time.Now().UTC(),
	}).Error)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.ErrorIs(t, err, ErrMonthlyCapReached)
	require.Zero(t, storage.uploads)
}

func TestSubmissionCreateCapIgnoresLastMonth(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	cap := 1
	activity := seedActivity(t, db, &cap)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	require.NoError(t, db.Create(&models.PointLedger{
		UserID:      student.UserID,
		ActivityID:  activity.ID,
		Points:      5,
		Source:      models.LedgerSourceSubmission,
		ReferenceID: "submission:100",
		CreatedAt:   lastMonth,
	}).Error)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.NoError(t, err)
}

func TestSubmissionCreateRejectsEvidenceType(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := seedActivity(t, db, nil)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	file := evidenceFile(t, "notes.txt", []byte("just some text"))
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, file)
	require.ErrorIs(t, err, ErrEvidenceTypeNotAllowed)
}

func TestSubmissionCreateRejectsOversizeEvidence(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := seedActivity(t, db, nil)
	svc := newSubmissionService(t, db, &storageStub{}, 1)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	file := evidenceFile(t, "huge.png", bytes.Repeat([]byte("a"), 2*1024*1024))
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, file)
	require.ErrorIs(t, err, ErrEvidenceTooLarge)
}

func TestSubmissionCreateRequiresEvidence(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := seedActivity(t, db, nil)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, nil)
	require.ErrorIs(t, err, ErrEvidenceRequired)
}

func TestSubmissionCreateEvidenceOptionalWithoutProofFlag(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := models.Activity{Title: "Study circle", Tier: 2}
	require.NoError(t, db.Create(&activity).Error)
	storage := &storageStub{}
	svc := newSubmissionService(t, db, storage, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	resp, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, resp.Status)
	require.Empty(t, resp.EvidenceURL)
	require.Zero(t, storage.uploads)

	// A file is still accepted when offered.
	resp, err = svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.NoError(t, err)
	require.Contains(t, resp.EvidenceURL, "proof")
	require.Equal(t, 1, storage.uploads)
}

func TestSubmissionListMine(t *testing.T) {
	db := submissionTestDB(t)
	student := seedStudent(t, db)
	activity := seedActivity(t, db, nil)
	svc := newSubmissionService(t, db, &storageStub{}, 5)

	actor := Actor{ID: student.UserID, StudentID: &student.ID}
	_, err := svc.Create(context.Background(), actor, dto.SubmissionCreateRequest{ActivityID: activity.ID}, pngEvidence(t))
	require.NoError(t, err)

	mine, err := svc.ListMine(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, activity.ID, mine[0].ActivityID)
}
