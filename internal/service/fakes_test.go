package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
)

// fakeStore is an in-memory stand-in for all repositories so service tests
// run without a database.
type fakeStore struct {
	submissions  map[uint]models.Submission
	chunks       map[uint][]models.SubmissionChunk
	fingerprints map[uint]models.ChunkFingerprint
	matches      []models.SimilarityMatch
	results      []models.FeedbackResult
	histories    []models.ConceptHistory
	profiles     map[int64]models.StudentProfile
	nextID       uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		submissions:  map[uint]models.Submission{},
		chunks:       map[uint][]models.SubmissionChunk{},
		fingerprints: map[uint]models.ChunkFingerprint{},
		profiles:     map[int64]models.StudentProfile{},
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

// addSubmission seeds a submission with optional chunks and returns it.
func (f *fakeStore) addSubmission(submission models.Submission, chunkTexts map[int]string) models.Submission {
	if submission.ID == 0 {
		submission.ID = f.id()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusPending
	}
	f.submissions[submission.ID] = submission

	for questionNo, text := range chunkTexts {
		f.chunks[submission.ID] = append(f.chunks[submission.ID], models.SubmissionChunk{
			ID:           f.id(),
			SubmissionID: submission.ID,
			QuestionNo:   questionNo,
			ChunkText:    text,
			CleanedText:  text,
		})
	}

	return submission
}

func (f *fakeStore) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeStore) GetByMoodleID(_ context.Context, moodleSubmissionID int64) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.MoodleSubmissionID == moodleSubmissionID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeStore) Update(_ context.Context, submission *models.Submission) error {
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeStore) CreateWithChunks(_ context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error {
	for _, existing := range f.submissions {
		if existing.MoodleSubmissionID == submission.MoodleSubmissionID {
			return fmt.Errorf("duplicate moodle submission %d", submission.MoodleSubmissionID)
		}
	}

	submission.ID = f.id()
	f.submissions[submission.ID] = *submission
	for i := range chunks {
		chunks[i].ID = f.id()
		chunks[i].SubmissionID = submission.ID
	}
	f.chunks[submission.ID] = append([]models.SubmissionChunk{}, chunks...)
	return nil
}

func (f *fakeStore) RepairWithChunks(_ context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error {
	f.submissions[submission.ID] = *submission
	for i := range chunks {
		chunks[i].ID = f.id()
		chunks[i].SubmissionID = submission.ID
	}
	f.chunks[submission.ID] = append([]models.SubmissionChunk{}, chunks...)
	return nil
}

func (f *fakeStore) ListBySubmission(_ context.Context, submissionID uint) ([]models.SubmissionChunk, error) {
	return append([]models.SubmissionChunk{}, f.chunks[submissionID]...), nil
}

func (f *fakeStore) CountBySubmission(_ context.Context, submissionID uint) (int64, error) {
	return int64(len(f.chunks[submissionID])), nil
}

func (f *fakeStore) ListPeers(_ context.Context, questionNo int, excludeSubmissionID uint) ([]repository.PeerChunk, error) {
	peers := make([]repository.PeerChunk, 0)
	for submissionID, chunks := range f.chunks {
		if submissionID == excludeSubmissionID {
			continue
		}
		for _, chunk := range chunks {
			if chunk.QuestionNo != questionNo {
				continue
			}
			fingerprint, ok := f.fingerprints[chunk.ID]
			if !ok {
				continue
			}
			peers = append(peers, repository.PeerChunk{
				ChunkID:      chunk.ID,
				SubmissionID: submissionID,
				QuestionNo:   questionNo,
				Vector:       fingerprint.Vector,
			})
		}
	}
	return peers, nil
}

func (f *fakeStore) GetByChunkID(_ context.Context, chunkID uint) (models.ChunkFingerprint, error) {
	fingerprint, ok := f.fingerprints[chunkID]
	if !ok {
		return models.ChunkFingerprint{}, gorm.ErrRecordNotFound
	}
	return fingerprint, nil
}

func (f *fakeStore) Ensure(_ context.Context, fingerprint *models.ChunkFingerprint) error {
	if existing, ok := f.fingerprints[fingerprint.ChunkID]; ok {
		*fingerprint = existing
		return nil
	}
	fingerprint.ID = f.id()
	f.fingerprints[fingerprint.ChunkID] = *fingerprint
	return nil
}

func (f *fakeStore) Create(_ context.Context, match *models.SimilarityMatch) error {
	match.ID = f.id()
	f.matches = append(f.matches, *match)
	return nil
}

func (f *fakeStore) DeleteByChunkIDs(_ context.Context, chunkIDs []uint) error {
	wanted := map[uint]bool{}
	for _, id := range chunkIDs {
		wanted[id] = true
	}
	kept := make([]models.SimilarityMatch, 0, len(f.matches))
	for _, match := range f.matches {
		if !wanted[match.ChunkID] {
			kept = append(kept, match)
		}
	}
	f.matches = kept
	return nil
}

func (f *fakeStore) ListByChunkIDs(_ context.Context, chunkIDs []uint) ([]models.SimilarityMatch, error) {
	wanted := map[uint]bool{}
	for _, id := range chunkIDs {
		wanted[id] = true
	}
	matches := make([]models.SimilarityMatch, 0)
	for _, match := range f.matches {
		if wanted[match.ChunkID] {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

func (f *fakeStore) SaveGraded(_ context.Context, result *models.FeedbackResult, submission *models.Submission) error {
	result.ID = f.id()
	result.CreatedAt = time.Now()
	f.results = append(f.results, *result)
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeStore) SaveReviewed(_ context.Context, result *models.FeedbackResult, submission *models.Submission, history *models.ConceptHistory, profile *models.StudentProfile) error {
	result.ID = f.id()
	result.CreatedAt = time.Now()
	f.results = append(f.results, *result)
	f.submissions[submission.ID] = *submission
	history.ID = f.id()
	f.histories = append(f.histories, *history)
	f.profiles[profile.StudentID] = *profile
	return nil
}

func (f *fakeStore) LatestBySubmission(_ context.Context, submissionID uint) (models.FeedbackResult, error) {
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].SubmissionID == submissionID {
			return f.results[i], nil
		}
	}
	return models.FeedbackResult{}, gorm.ErrRecordNotFound
}

func (f *fakeStore) ListByStudent(_ context.Context, studentID int64, limit int) ([]models.FeedbackResult, error) {
	results := make([]models.FeedbackResult, 0)
	for i := len(f.results) - 1; i >= 0; i-- {
		submission, ok := f.submissions[f.results[i].SubmissionID]
		if !ok || submission.StudentID != studentID {
			continue
		}
		results = append(results, f.results[i])
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}

func (f *fakeStore) Get(_ context.Context, studentID int64) (models.StudentProfile, error) {
	profile, ok := f.profiles[studentID]
	if !ok {
		return models.StudentProfile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (f *fakeStore) ListConceptHistory(_ context.Context, studentID int64, limit int) ([]models.ConceptHistory, error) {
	rows := make([]models.ConceptHistory, 0)
	for i := len(f.histories) - 1; i >= 0; i-- {
		if f.histories[i].StudentID != studentID {
			continue
		}
		rows = append(rows, f.histories[i])
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return rows, nil
}
