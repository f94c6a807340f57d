package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

var fullMarkAnswers = map[int]string{
	1: "A Service gives pods a stable endpoint with DNS. Pod IPs change on restart, and the Service load balances traffic between them.",
	2: "ClusterIP is reachable only internal to the cluster. NodePort exposes the Service external by opening a port on every node.",
	3: "A NetworkPolicy can allow only frontend pods to reach the backend and deny all other traffic.",
}

func TestScoreAnswersFullMarks(t *testing.T) {
	grade, feedback, payload := scoreAnswers(fullMarkAnswers, DefaultMaxGrade)

	require.InDelta(t, 100.0, grade, 1e-9)
	require.Equal(t, 3, payload["q1"])
	require.Equal(t, 3, payload["q2"])
	require.Equal(t, 3, payload["q3"])
	require.InDelta(t, 9.0, payload["raw_score"].(float64), 1e-9)
	require.Contains(t, feedback, "Q1: 3/3")
	require.Contains(t, feedback, "Overall:")
}

func TestScoreAnswersEmpty(t *testing.T) {
	grade, _, payload := scoreAnswers(map[int]string{}, DefaultMaxGrade)

	require.Zero(t, grade)
	require.Equal(t, 0, payload["q1"])
	require.Equal(t, 0, payload["q2"])
	require.Equal(t, 0, payload["q3"])
}

func TestScoreAnswersPartialRescaled(t *testing.T) {
	answers := map[int]string{1: "a service gives a stable endpoint"}

	grade, _, payload := scoreAnswers(answers, DefaultMaxGrade)
	require.Equal(t, 1, payload["q1"])
	require.InDelta(t, 11.11, grade, 1e-9)

	smallScale, _, _ := scoreAnswers(answers, 10)
	require.InDelta(t, 1.11, smallScale, 1e-9)
}

func TestScoreAnswersCaseInsensitive(t *testing.T) {
	_, _, lower := scoreAnswers(map[int]string{2: "clusterip works inside, nodeport outside"}, DefaultMaxGrade)
	_, _, upper := scoreAnswers(map[int]string{2: "CLUSTERIP WORKS INSIDE, NODEPORT OUTSIDE"}, DefaultMaxGrade)
	require.Equal(t, lower["q2"], upper["q2"])
}

func TestGradePersistsResult(t *testing.T) {
	store := newFakeStore()
	svc := NewRubricService(store, store, store, DefaultMaxGrade, zerolog.Nop())

	submission := store.addSubmission(models.Submission{MoodleSubmissionID: 1, StudentID: 7}, fullMarkAnswers)

	resp, err := svc.Grade(context.Background(), submission.ID, DefaultMaxGrade)
	require.NoError(t, err)
	require.InDelta(t, 100.0, resp.Grade, 1e-9)
	require.NotZero(t, resp.FeedbackID)

	require.Equal(t, models.SubmissionStatusGraded, store.submissions[submission.ID].Status)
	require.Len(t, store.results, 1)
	require.InDelta(t, 0.75, store.results[0].Confidence, 1e-9)
}

func TestGradeUsesConfiguredScale(t *testing.T) {
	store := newFakeStore()
	svc := NewRubricService(store, store, store, 20, zerolog.Nop())

	submission := store.addSubmission(models.Submission{MoodleSubmissionID: 1, StudentID: 7}, fullMarkAnswers)

	// No per-request override: the configured scale applies.
	resp, err := svc.Grade(context.Background(), submission.ID, 0)
	require.NoError(t, err)
	require.InDelta(t, 20.0, resp.Grade, 1e-9)

	// An explicit override still wins over the configured scale.
	resp, err = svc.Grade(context.Background(), submission.ID, 10)
	require.NoError(t, err)
	require.InDelta(t, 10.0, resp.Grade, 1e-9)
}

func TestGradePrependsPlagiarismWarning(t *testing.T) {
	store := newFakeStore()
	svc := NewRubricService(store, store, store, DefaultMaxGrade, zerolog.Nop())

	submission := store.addSubmission(models.Submission{
		MoodleSubmissionID: 1,
		StudentID:          7,
		PlagiarismFlag:     true,
	}, fullMarkAnswers)

	resp, err := svc.Grade(context.Background(), submission.ID, DefaultMaxGrade)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.FeedbackText, "Plagiarism warning:"))
}

func TestGradeMissingSubmission(t *testing.T) {
	store := newFakeStore()
	svc := NewRubricService(store, store, store, DefaultMaxGrade, zerolog.Nop())

	_, err := svc.Grade(context.Background(), 99, DefaultMaxGrade)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
