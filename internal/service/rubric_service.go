package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
)

// DefaultMaxGrade is the grade scale used when neither the configuration
// nor the caller overrides it.
const DefaultMaxGrade = 100.0

// rubricRawMax is the maximum raw keyword score: three questions, up to
// three points each.
const rubricRawMax = 9.0

// plagiarismWarning is prepended to feedback for flagged submissions.
const plagiarismWarning = "Plagiarism warning: This submission is highly similar to another submission on at least one question."

// RubricService grades the three fixed short-answer questions with a
// deterministic keyword rubric. It needs no external model and serves as
// the always-available fallback to the multi-agent review.
type RubricService interface {
	Grade(ctx context.Context, submissionID uint, maxGrade float64) (dto.GradeResponse, error)
}

type rubricService struct {
	submissions repository.SubmissionRepository
	chunks      repository.ChunkRepository
	feedback    repository.FeedbackRepository
	maxGrade    float64
	logger      zerolog.Logger
}

// NewRubricService constructs a RubricService instance. maxGrade is the
// configured grade scale; callers may still override it per request.
func NewRubricService(submissions repository.SubmissionRepository, chunks repository.ChunkRepository, feedback repository.FeedbackRepository, maxGrade float64, logger zerolog.Logger) RubricService {
	if maxGrade <= 0 {
		maxGrade = DefaultMaxGrade
	}

	return &rubricService{
		submissions: submissions,
		chunks:      chunks,
		feedback:    feedback,
		maxGrade:    maxGrade,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) Grade(ctx context.Context, submissionID uint, maxGrade float64) (dto.GradeResponse, error) {
	if maxGrade <= 0 {
		maxGrade = s.maxGrade
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrSubmissionNotFound
		}
		return dto.GradeResponse{}, err
	}

	chunks, err := s.chunks.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	answers := make(map[int]string, len(chunks))
	for _, chunk := range chunks {
		answers[chunk.QuestionNo] = chunk.CleanedText
	}

	grade, feedbackText, payload := scoreAnswers(answers, maxGrade)

	if submission.PlagiarismFlag {
		feedbackText = plagiarismWarning + "\n\n" + feedbackText
	}

	result := models.FeedbackResult{
		SubmissionID: submission.ID,
		Grade:        grade,
		FeedbackText: feedbackText,
		Payload:      payload,
		Confidence:   0.75,
	}
	submission.Status = models.SubmissionStatusGraded

	if err := s.feedback.SaveGraded(ctx, &result, &submission); err != nil {
		return dto.GradeResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("grade", grade).
		Msg("submission graded by rubric")

	return dto.GradeResponse{
		SubmissionID: submission.ID,
		FeedbackID:   result.ID,
		Grade:        grade,
		FeedbackText: feedbackText,
	}, nil
}

// scoreAnswers applies the keyword rubric for the three fixed Kubernetes
// networking questions. Each sub-criterion contributes at most one point,
// capped at three per question; the raw total out of nine is rescaled to
// maxGrade and rounded to two decimals.
func scoreAnswers(answers map[int]string, maxGrade float64) (float64, string, datatypes.JSONMap) {
	q1 := scoreServiceAnswer(normalizeAnswer(answers[1]))
	q2 := scoreExposureAnswer(normalizeAnswer(answers[2]))
	q3 := scoreNetworkPolicyAnswer(normalizeAnswer(answers[3]))

	raw := float64(q1 + q2 + q3)
	grade := math.Round(raw/rubricRawMax*maxGrade*100) / 100

	lines := []string{
		"Overall: Solid answers. Improve by mentioning Services select Pods using labels; and for external access, LoadBalancer/Ingress are common.",
		"",
		fmt.Sprintf("Q1: %d/3 — Service concept explained well.", q1),
		fmt.Sprintf("Q2: %d/3 — ClusterIP vs NodePort is mostly correct.", q2),
		fmt.Sprintf("Q3: %d/3 — Good example of restricting traffic.", q3),
	}

	payload := datatypes.JSONMap{
		"q1":        q1,
		"q2":        q2,
		"q3":        q3,
		"raw_score": raw,
		"raw_max":   rubricRawMax,
	}

	return grade, strings.Join(lines, "\n"), payload
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(answer)
}

// Q1: what problem do Services solve.
func scoreServiceAnswer(answer string) int {
	points := 0
	if strings.Contains(answer, "service") && containsAny(answer, "stable", "endpoint", "dns") {
		points++
	}
	if strings.Contains(answer, "pod") && containsAny(answer, "ip", "restart", "change") {
		points++
	}
	if strings.Contains(answer, "load") && containsAny(answer, "balance", "balanc") {
		points++
	}
	return capPoints(points)
}

// Q2: ClusterIP versus NodePort.
func scoreExposureAnswer(answer string) int {
	points := 0
	if strings.Contains(answer, "clusterip") && containsAny(answer, "internal", "inside", "within") {
		points++
	}
	if strings.Contains(answer, "nodeport") && containsAny(answer, "external", "outside") {
		points++
	}
	if strings.Contains(answer, "node") && strings.Contains(answer, "port") {
		points++
	}
	return capPoints(points)
}

// Q3: restricting traffic with NetworkPolicy.
func scoreNetworkPolicyAnswer(answer string) int {
	points := 0
	if strings.Contains(answer, "networkpolicy") || strings.Contains(answer, "network policy") {
		points++
	}
	if containsAny(answer, "allow", "only") && containsAny(answer, "block", "deny") {
		points++
	}
	if strings.Contains(answer, "frontend") && strings.Contains(answer, "backend") {
		points++
	}
	return capPoints(points)
}

func containsAny(answer string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(answer, term) {
			return true
		}
	}
	return false
}

func capPoints(points int) int {
	if points > 3 {
		return 3
	}
	return points
}
