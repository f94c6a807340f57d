package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/segment"
)

// ErrEmptySubmission indicates the payload carried no usable answer text.
var ErrEmptySubmission = errors.New("submission text is empty")

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// IngestionService stores incoming submissions and splits them into
// per-question chunks. Re-ingesting a known submission is idempotent.
type IngestionService interface {
	Ingest(ctx context.Context, payload dto.SubmissionIngestRequest) (dto.SubmissionIngestResponse, error)
	GetByMoodleID(ctx context.Context, moodleSubmissionID int64) (dto.SubmissionResponse, error)
}

type ingestionService struct {
	submissions repository.SubmissionRepository
	chunks      repository.ChunkRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewIngestionService constructs an IngestionService instance.
func NewIngestionService(submissions repository.SubmissionRepository, chunks repository.ChunkRepository, validate *validator.Validate, logger zerolog.Logger) IngestionService {
	return &ingestionService{
		submissions: submissions,
		chunks:      chunks,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "ingestion_service").Logger(),
	}
}

func (s *ingestionService) Ingest(ctx context.Context, payload dto.SubmissionIngestRequest) (dto.SubmissionIngestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionIngestResponse{}, err
	}

	source := strings.TrimSpace(payload.CleanedText)
	if source == "" {
		source = strings.TrimSpace(payload.RawText)
	}
	if source == "" {
		return dto.SubmissionIngestResponse{}, ErrEmptySubmission
	}

	// Submissions arrive from a Moodle HTML export, strip markup before
	// normalizing extraction artifacts.
	cleaned := segment.Normalize(s.sanitizer.Sanitize(source))
	if cleaned == "" {
		return dto.SubmissionIngestResponse{}, ErrEmptySubmission
	}

	existing, err := s.submissions.GetByMoodleID(ctx, payload.MoodleSubmissionID)
	switch {
	case err == nil:
		return s.repairExisting(ctx, existing, payload, cleaned)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to insert
	default:
		return dto.SubmissionIngestResponse{}, err
	}

	submission := models.Submission{
		MoodleSubmissionID: payload.MoodleSubmissionID,
		AssignmentID:       payload.AssignmentID,
		CourseID:           payload.CourseID,
		StudentID:          payload.StudentID,
		RawText:            payload.RawText,
		CleanedText:        cleaned,
		Status:             models.SubmissionStatusPending,
	}

	chunks := buildChunks(cleaned)
	if err := s.submissions.CreateWithChunks(ctx, &submission, chunks); err != nil {
		return dto.SubmissionIngestResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("chunks", len(chunks)).
		Msg("submission ingested")

	return dto.SubmissionIngestResponse{
		Status:         dto.IngestStatusStored,
		SubmissionID:   submission.ID,
		ChunksSaved:    len(chunks),
		ChunkQuestions: chunkQuestions(chunks),
	}, nil
}

// repairExisting handles the duplicate-ingestion paths: a submission that
// already has chunks is reported as-is, one without chunks gets rechunked.
func (s *ingestionService) repairExisting(ctx context.Context, existing models.Submission, payload dto.SubmissionIngestRequest, cleaned string) (dto.SubmissionIngestResponse, error) {
	count, err := s.chunks.CountBySubmission(ctx, existing.ID)
	if err != nil {
		return dto.SubmissionIngestResponse{}, err
	}

	if count > 0 {
		return dto.SubmissionIngestResponse{
			Status:       dto.IngestStatusExists,
			SubmissionID: existing.ID,
			ChunksSaved:  int(count),
		}, nil
	}

	existing.RawText = payload.RawText
	existing.CleanedText = cleaned
	existing.AssignmentID = payload.AssignmentID
	existing.CourseID = payload.CourseID
	existing.StudentID = payload.StudentID

	chunks := buildChunks(cleaned)
	if err := s.submissions.RepairWithChunks(ctx, &existing, chunks); err != nil {
		return dto.SubmissionIngestResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", existing.ID).
		Int("chunks", len(chunks)).
		Msg("submission rechunked")

	return dto.SubmissionIngestResponse{
		Status:         dto.IngestStatusRechunked,
		SubmissionID:   existing.ID,
		ChunksSaved:    len(chunks),
		ChunkQuestions: chunkQuestions(chunks),
	}, nil
}

func (s *ingestionService) GetByMoodleID(ctx context.Context, moodleSubmissionID int64) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByMoodleID(ctx, moodleSubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// buildChunks splits cleaned text into chunk rows. The segmenter may emit
// the same question number twice; the last occurrence wins so the unique
// (submission, question) constraint cannot trip on a malformed submission.
func buildChunks(cleaned string) []models.SubmissionChunk {
	parts := segment.Split(cleaned)
	chunks := make([]models.SubmissionChunk, 0, len(parts))
	position := make(map[int]int, len(parts))
	for _, part := range parts {
		chunk := models.SubmissionChunk{
			QuestionNo:  part.Question,
			ChunkText:   part.Text,
			CleanedText: segment.Normalize(part.Text),
		}
		if at, seen := position[part.Question]; seen {
			chunks[at] = chunk
			continue
		}
		position[part.Question] = len(chunks)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func chunkQuestions(chunks []models.SubmissionChunk) []int {
	questions := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		questions = append(questions, chunk.QuestionNo)
	}
	return questions
}
