package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

const sampleAnswers = `1. Services give pods a stable endpoint even when pod IPs change on restart.
2. ClusterIP is reachable only inside the cluster while NodePort opens a port on every node.
3. A NetworkPolicy can allow only frontend pods to talk to the backend and deny everything else.`

func newIngestionFixture() (*fakeStore, IngestionService) {
	store := newFakeStore()
	svc := NewIngestionService(store, store, validator.New(), zerolog.Nop())
	return store, svc
}

func TestIngestStoresSubmissionWithChunks(t *testing.T) {
	store, svc := newIngestionFixture()

	resp, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 101,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            sampleAnswers,
	})
	require.NoError(t, err)
	require.Equal(t, dto.IngestStatusStored, resp.Status)
	require.Equal(t, 3, resp.ChunksSaved)
	require.Equal(t, []int{1, 2, 3}, resp.ChunkQuestions)

	submission := store.submissions[resp.SubmissionID]
	require.Equal(t, models.SubmissionStatusPending, submission.Status)
	require.Equal(t, int64(77), submission.StudentID)

	chunks := store.chunks[resp.SubmissionID]
	require.Len(t, chunks, 3)
	require.Contains(t, chunks[0].CleanedText, "stable endpoint")
}

func TestIngestRejectsEmptyText(t *testing.T) {
	_, svc := newIngestionFixture()

	_, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 101,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            "   \n\t ",
	})
	require.ErrorIs(t, err, ErrEmptySubmission)
}

func TestIngestRejectsInvalidPayload(t *testing.T) {
	_, svc := newIngestionFixture()

	_, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 101,
		RawText:            sampleAnswers,
	})
	require.Error(t, err)
}

func TestIngestIsIdempotent(t *testing.T) {
	_, svc := newIngestionFixture()
	payload := dto.SubmissionIngestRequest{
		MoodleSubmissionID: 101,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            sampleAnswers,
	}

	first, err := svc.Ingest(context.Background(), payload)
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, dto.IngestStatusExists, second.Status)
	require.Equal(t, first.SubmissionID, second.SubmissionID)
	require.Equal(t, 3, second.ChunksSaved)
}

func TestIngestRechunksSubmissionWithoutChunks(t *testing.T) {
	store, svc := newIngestionFixture()
	seeded := store.addSubmission(models.Submission{MoodleSubmissionID: 101, StudentID: 1}, nil)

	resp, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 101,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            sampleAnswers,
	})
	require.NoError(t, err)
	require.Equal(t, dto.IngestStatusRechunked, resp.Status)
	require.Equal(t, seeded.ID, resp.SubmissionID)
	require.Len(t, store.chunks[seeded.ID], 3)
	require.Equal(t, int64(77), store.submissions[seeded.ID].StudentID)
}

func TestIngestStripsMarkup(t *testing.T) {
	store, svc := newIngestionFixture()

	resp, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 102,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            "1. <p>Services give a <b>stable</b> endpoint.</p>",
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.ChunksSaved)

	chunk := store.chunks[resp.SubmissionID][0]
	require.NotContains(t, chunk.CleanedText, "<")
	require.Contains(t, chunk.CleanedText, "stable")
}

func TestIngestKeepsLastDuplicateQuestion(t *testing.T) {
	store, svc := newIngestionFixture()

	resp, err := svc.Ingest(context.Background(), dto.SubmissionIngestRequest{
		MoodleSubmissionID: 103,
		AssignmentID:       5,
		CourseID:           2,
		StudentID:          77,
		RawText:            "1. first attempt\n2. second answer\n1. revised attempt",
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.ChunksSaved)

	var q1 models.SubmissionChunk
	for _, chunk := range store.chunks[resp.SubmissionID] {
		if chunk.QuestionNo == 1 {
			q1 = chunk
		}
	}
	require.Contains(t, q1.CleanedText, "revised")
}
