package service

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/pkg/llm"
)

func TestCalcTrend(t *testing.T) {
	previous := func(v float64) *float64 { return &v }

	cases := []struct {
		name  string
		prev  *float64
		grade float64
		want  string
	}{
		{"first grade", nil, 80, models.TrendUnknown},
		{"up six", previous(70), 76, models.TrendImproving},
		{"up exactly five", previous(70), 75, models.TrendImproving},
		{"down six", previous(80), 74, models.TrendDeclining},
		{"down exactly five", previous(80), 75, models.TrendDeclining},
		{"small move", previous(80), 82, models.TrendStable},
		{"no move", previous(80), 80, models.TrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, calcTrend(tc.prev, tc.grade))
		})
	}
}

func TestPickWeakConcepts(t *testing.T) {
	scores := map[string]float64{
		"service":            0.75,
		"clusterip_nodeport": 0.8,
		"networkpolicy":      0.7,
	}
	require.Equal(t, []string{"networkpolicy", "service"}, pickWeakConcepts(scores, 2))

	// ties resolve alphabetically so repeated runs agree
	tied := map[string]float64{"b": 0.5, "a": 0.5, "c": 0.9}
	require.Equal(t, []string{"a", "b"}, pickWeakConcepts(tied, 2))

	require.Equal(t, []string{"a", "b", "c"}, pickWeakConcepts(tied, 5))
	require.Empty(t, pickWeakConcepts(nil, 2))
}

func TestSummarizeFeedback(t *testing.T) {
	require.Equal(t, "one line", summarizeFeedback("  one line  ", summaryMaxLen))
	require.Equal(t, "two lines here", summarizeFeedback("two\nlines here", summaryMaxLen))

	long := strings.Repeat("x", 400)
	summary := summarizeFeedback(long, summaryMaxLen)
	require.Len(t, summary, summaryMaxLen+3)
	require.True(t, strings.HasSuffix(summary, "..."))
}

func TestFold(t *testing.T) {
	store := newFakeStore()
	svc := NewProgressService(store, store, nil, 0, zerolog.Nop())

	prev := 70.0
	previous := &models.StudentProfile{StudentID: 7, LastGrade: &prev}

	profile, history := svc.Fold(previous, ProgressUpdate{
		StudentID:     7,
		SubmissionID:  3,
		Grade:         80,
		FinalFeedback: "Good work overall.",
		ConceptScores: map[string]float64{
			"service":            0.9,
			"clusterip_nodeport": 0.4,
			"networkpolicy":      0.6,
		},
	})

	require.Equal(t, models.TrendImproving, profile.Trend)
	require.InDelta(t, 80.0, *profile.LastGrade, 1e-9)
	require.Equal(t, "Good work overall.", profile.LastFeedbackSummary)
	require.JSONEq(t, `["clusterip_nodeport","networkpolicy"]`, string(profile.WeakConcepts))

	require.Equal(t, int64(7), history.StudentID)
	require.Equal(t, uint(3), history.SubmissionID)
	require.InDelta(t, 0.9, history.Service, 1e-9)
	require.InDelta(t, 0.4, history.ClusterIP, 1e-9)
	require.InDelta(t, 0.6, history.NetPolicy, 1e-9)
}

func TestGetProgressEmptyStudent(t *testing.T) {
	store := newFakeStore()
	svc := NewProgressService(store, store, nil, 0, zerolog.Nop())

	resp, err := svc.GetProgress(context.Background(), 404, 0)
	require.NoError(t, err)
	require.Equal(t, int64(404), resp.StudentID)
	require.Equal(t, models.TrendUnknown, resp.Profile.Trend)
	require.Empty(t, resp.Profile.WeakConcepts)
	require.Empty(t, resp.GradeHistory)
	require.Empty(t, resp.ConceptHistory)
}

func TestGetProgressAggregates(t *testing.T) {
	store := newFakeStore()
	svc := NewProgressService(store, store, nil, 0, zerolog.Nop())
	review := newReviewFixture(store, llm.MockProvider{})

	first := store.addSubmission(models.Submission{MoodleSubmissionID: 1, StudentID: 7}, fullMarkAnswers)
	second := store.addSubmission(models.Submission{MoodleSubmissionID: 2, StudentID: 7}, fullMarkAnswers)

	_, err := review.Review(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = review.Review(context.Background(), second.ID)
	require.NoError(t, err)

	resp, err := svc.GetProgress(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, resp.GradeHistory, 2)
	require.Len(t, resp.ConceptHistory, 2)
	// newest first
	require.Equal(t, second.ID, resp.GradeHistory[0].SubmissionID)
	require.Equal(t, second.ID, resp.ConceptHistory[0].SubmissionID)
	require.Equal(t, models.TrendStable, resp.Profile.Trend)
	require.NotEmpty(t, resp.Profile.LastFeedbackSummary)
}

func TestGetProgressUsesCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	store := newFakeStore()
	svc := NewProgressService(store, store, redisClient, time.Minute, zerolog.Nop())
	review := newReviewFixture(store, llm.MockProvider{})

	submission := store.addSubmission(models.Submission{MoodleSubmissionID: 1, StudentID: 7}, fullMarkAnswers)
	_, err = review.Review(context.Background(), submission.ID)
	require.NoError(t, err)

	warm, err := svc.GetProgress(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, warm.GradeHistory, 1)

	// wipe the store, the cached view must survive
	store.results = nil
	store.histories = nil

	cached, err := svc.GetProgress(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, cached.GradeHistory, 1)
	require.Len(t, cached.ConceptHistory, 1)
}
