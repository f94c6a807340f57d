package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/observability"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/pkg/llm"
)

// ErrFeedbackNotFound indicates no grading result exists for a submission.
var ErrFeedbackNotFound = errors.New("feedback result not found")

const (
	// answerCap limits how much of an answer is sent to an agent.
	answerCap = 600
	// shortAnswerCap limits answer excerpts for the personalization pass.
	shortAnswerCap = 300
	// contextSummaryCap limits the prior-feedback summary in agent context.
	contextSummaryCap = 200
	// correctnessMaxRaw is the maximum total of the per-question scores.
	correctnessMaxRaw = 9.0

	passCorrectness     = "correctness"
	passMisconception   = "misconception"
	passClarity         = "clarity"
	passPersonalization = "personalization"
	passSynthesis       = "synthesis"
	passQA              = "qa"
	passCorrection      = "correction"
)

// ReviewService runs the multi-agent feedback pipeline over a submission
// and persists the synthesized result.
type ReviewService interface {
	Review(ctx context.Context, submissionID uint) (dto.ReviewResponse, error)
	PushPayload(ctx context.Context, submissionID uint) (dto.PushPayload, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	chunks      repository.ChunkRepository
	feedback    repository.FeedbackRepository
	profiles    repository.ProfileRepository
	progress    ProgressService
	provider    llm.Provider
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewReviewService constructs a ReviewService instance. The NATS connection
// may be nil; graded events are then skipped.
func NewReviewService(submissions repository.SubmissionRepository, chunks repository.ChunkRepository, feedback repository.FeedbackRepository, profiles repository.ProfileRepository, progress ProgressService, provider llm.Provider, natsConn *nats.Conn, natsSubject string, logger zerolog.Logger) ReviewService {
	return &reviewService{
		submissions: submissions,
		chunks:      chunks,
		feedback:    feedback,
		profiles:    profiles,
		progress:    progress,
		provider:    provider,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/service/review"),
	}
}

// Review runs the full agent pipeline for one submission: correctness
// scoring, deterministic grade fusion, misconception and clarity analysis,
// personalization against the student's profile, synthesis, a QA pass and
// at most one compress-and-fix retry. The result, the concept-history row
// and the profile update are persisted in one transaction.
func (s *reviewService) Review(ctx context.Context, submissionID uint) (dto.ReviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.run", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load submission")
		return dto.ReviewResponse{}, fmt.Errorf("failed to load submission: %w", err)
	}

	chunks, err := s.chunks.ListBySubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, fmt.Errorf("failed to load chunks: %w", err)
	}

	answers := map[int]string{}
	for _, chunk := range chunks {
		answers[chunk.QuestionNo] = chunk.CleanedText
	}

	studentContext := s.loadStudentContext(ctx, submission.StudentID)

	synth, grade, err := s.runPipeline(ctx, answers, studentContext)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent pipeline failed")
		return dto.ReviewResponse{}, err
	}

	feedbackText := coerceString(synth["final_feedback"])
	if submission.PlagiarismFlag {
		feedbackText = plagiarismWarning + "\n\n" + feedbackText
	}

	conceptScores := extractConceptScores(synth["concept_scores"])

	var previous *models.StudentProfile
	if profile, profileErr := s.profiles.Get(ctx, submission.StudentID); profileErr == nil {
		previous = &profile
	}

	profile, history := s.progress.Fold(previous, ProgressUpdate{
		StudentID:     submission.StudentID,
		SubmissionID:  submission.ID,
		Grade:         float64(grade),
		FinalFeedback: coerceString(synth["final_feedback"]),
		ConceptScores: conceptScores,
	})

	result := models.FeedbackResult{
		SubmissionID: submission.ID,
		Grade:        float64(grade),
		FeedbackText: feedbackText,
		Payload:      datatypes.JSONMap(synth),
		Confidence:   coerceFloat(synth["confidence"]),
	}
	submission.Status = models.SubmissionStatusGraded

	if err := s.feedback.SaveReviewed(ctx, &result, &submission, &history, &profile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist review")
		return dto.ReviewResponse{}, fmt.Errorf("failed to persist review: %w", err)
	}

	s.publishGraded(submission, result)

	span.SetAttributes(attribute.Int("review.grade", grade))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("feedback_id", result.ID).
		Int("grade", grade).
		Msg("multi-agent review completed")

	return dto.ReviewResponse{
		SubmissionID: submission.ID,
		FeedbackID:   result.ID,
		Grade:        result.Grade,
		FeedbackText: result.FeedbackText,
		Confidence:   result.Confidence,
		Result:       synth,
	}, nil
}

// PushPayload assembles the latest grading result for a submission in the
// shape the LMS push glue expects.
func (s *reviewService) PushPayload(ctx context.Context, submissionID uint) (dto.PushPayload, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PushPayload{}, ErrSubmissionNotFound
		}
		return dto.PushPayload{}, fmt.Errorf("failed to load submission: %w", err)
	}

	// Pending submissions have nothing to push yet, and a flagged one
	// must be cleared or re-graded before its grade leaves the system.
	if !submission.IsGraded() {
		return dto.PushPayload{}, ErrFeedbackNotFound
	}

	result, err := s.feedback.LatestBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PushPayload{}, ErrFeedbackNotFound
		}
		return dto.PushPayload{}, fmt.Errorf("failed to load feedback: %w", err)
	}

	return dto.PushPayload{
		MoodleUserID:       submission.StudentID,
		MoodleSubmissionID: submission.MoodleSubmissionID,
		MoodleAssignID:     submission.AssignmentID,
		Grade:              result.Grade,
		FeedbackText:       result.FeedbackText,
	}, nil
}

// studentContext is the minimal profile slice agents are allowed to see.
type studentContext struct {
	StudentID           int64    `json:"student_id"`
	WeakConcepts        []string `json:"weak_concepts"`
	Trend               string   `json:"trend"`
	LastFeedbackSummary string   `json:"last_feedback_summary"`
}

func (s *reviewService) loadStudentContext(ctx context.Context, studentID int64) studentContext {
	sc := studentContext{
		StudentID:    studentID,
		WeakConcepts: []string{},
		Trend:        models.TrendUnknown,
	}

	profile, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		return sc
	}

	if len(profile.WeakConcepts) > 0 {
		var weak []string
		if err := json.Unmarshal(profile.WeakConcepts, &weak); err == nil {
			sc.WeakConcepts = weak
		}
	}
	sc.Trend = profile.Trend
	sc.LastFeedbackSummary = capText(profile.LastFeedbackSummary, contextSummaryCap)

	return sc
}

// runPipeline executes the agent sequence and returns the synthesized
// payload with the deterministic grade already injected.
func (s *reviewService) runPipeline(ctx context.Context, answers map[int]string, sc studentContext) (map[string]interface{}, int, error) {
	q1 := capText(answers[1], answerCap)
	q2 := capText(answers[2], answerCap)
	q3 := capText(answers[3], answerCap)

	corr, err := s.runPass(ctx, passCorrectness,
		"You are the Correctness Agent. Return STRICT JSON only.",
		fmt.Sprintf(`Correctness Agent (BE BRIEF)
Student answers:
Q1: %s
Q2: %s
Q3: %s

Return STRICT JSON:
{
  "q_scores": {"Q1": 0-3, "Q2": 0-3, "Q3": 0-3},
  "key_points_found": {"Q1":[max 3], "Q2":[max 3], "Q3":[max 3]}
}`, q1, q2, q3))
	if err != nil {
		return nil, 0, err
	}

	qScores, _ := corr["q_scores"].(map[string]interface{})
	grade := gradeFromQScores(qScores)
	qScoresJSON := encodeJSON(qScores)

	misc, err := s.runPass(ctx, passMisconception,
		"You are the Misconception Agent. Return STRICT JSON only.",
		fmt.Sprintf(`Misconception Agent (VERY BRIEF)
For each question return:
- misconceptions: max 1 short sentence
- missing_points_top: max 2 bullet phrases

Student answers:
Q1: %s
Q2: %s
Q3: %s

Return STRICT JSON:
{
  "Q1": {"misconceptions":[...], "missing_points_top":[...]},
  "Q2": {"misconceptions":[...], "missing_points_top":[...]},
  "Q3": {"misconceptions":[...], "missing_points_top":[...]}
}`, q1, q2, q3))
	if err != nil {
		return nil, 0, err
	}

	clarity, err := s.runPass(ctx, passClarity,
		"You are the Clarity Agent. Return STRICT JSON only.",
		fmt.Sprintf(`Clarity Agent (VERY BRIEF)
Return EXACTLY ONE JSON OBJECT (NOT a list):
{"clarity_score": 0-10, "writing_suggestions": [max 2 short bullets]}

Answers:
Q1: %s
Q2: %s
Q3: %s`, q1, q2, q3))
	if err != nil {
		return nil, 0, err
	}

	pers, err := s.runPass(ctx, passPersonalization,
		"You are the Personalization Agent. Return STRICT JSON only.",
		fmt.Sprintf(`Personalization Agent (BE BRIEF)
Student context: %s

Return STRICT JSON:
{
  "personalized_notes": "max 2 sentences",
  "recommended_next_topics": [max 3 topics]
}

Short answers:
Q1: %s
Q2: %s
Q3: %s`, encodeJSON(sc), capText(q1, shortAnswerCap), capText(q2, shortAnswerCap), capText(q3, shortAnswerCap)))
	if err != nil {
		return nil, 0, err
	}

	synth, err := s.runPass(ctx, passSynthesis,
		"You are the Feedback Synthesizer. Return STRICT JSON only.",
		fmt.Sprintf(`SYNTHESIZER (VERY SHORT OUTPUT)
Do NOT teach. Do NOT write long paragraphs.
Follow limits strictly.

Inputs:
Correctness: %s
Misconceptions: %s
Clarity: %s
Personalization: %s

Return STRICT JSON exactly with these keys:
{
  "confidence": 0-1,
  "final_feedback": "max 120 words",
  "strengths": [max 3 short bullets],
  "weaknesses": [max 3 short bullets],
  "next_steps": [max 3 short bullets],
  "concept_scores": {"service":0-1,"clusterip_nodeport":0-1,"networkpolicy":0-1}
}`, encodeJSON(corr), encodeJSON(misc), encodeJSON(clarity), encodeJSON(pers)))
	if err != nil {
		return nil, 0, err
	}

	// The grade never comes from an agent.
	synth["grade"] = grade

	qa, err := s.runPass(ctx, passQA,
		"You are the Feedback QA Agent. Return STRICT JSON only.",
		fmt.Sprintf(`Feedback QA Agent
Check:
1) final_feedback <= 120 words
2) strengths/weaknesses/next_steps within limits
3) no contradictions with q_scores:
   - if q_scores are low, feedback must not claim "all perfect"
   - if q_scores are max, feedback should not claim "major mistakes"

Return STRICT JSON:
{"quality_score":0-1, "issues":[...], "too_long":true/false, "contradiction":true/false}

q_scores:
%s

Feedback JSON:
%s`, qScoresJSON, encodeJSON(synth)))
	if err != nil {
		return nil, 0, err
	}

	if coerceBool(qa["too_long"]) || coerceBool(qa["contradiction"]) {
		s.logger.Warn().
			Bool("too_long", coerceBool(qa["too_long"])).
			Bool("contradiction", coerceBool(qa["contradiction"])).
			Msg("qa rejected synthesis, running correction pass")

		fixed, err := s.runPass(ctx, passCorrection,
			"You compress and fix feedback. Return STRICT JSON only.",
			fmt.Sprintf(`COMPRESS & FIX
Rewrite to be shorter and consistent with q_scores.
Rules:
- final_feedback max 80 words
- strengths max 2 bullets
- weaknesses max 2 bullets
- next_steps max 2 bullets
- do NOT change grade (grade is computed)
- keep the same keys

q_scores:
%s

Input JSON:
%s

Return STRICT JSON with SAME keys.`, qScoresJSON, encodeJSON(synth)))
		if err != nil {
			return nil, 0, err
		}
		fixed["grade"] = grade

		qa, err = s.runPass(ctx, passQA,
			"You are the Feedback QA Agent. Return STRICT JSON only.",
			fmt.Sprintf(`QA AGAIN
Return STRICT JSON:
{"quality_score":0-1, "issues":[...], "too_long":true/false, "contradiction":true/false}

q_scores:
%s

Feedback JSON:
%s`, qScoresJSON, encodeJSON(fixed)))
		if err != nil {
			return nil, 0, err
		}

		synth = fixed
	}

	synth["agents"] = map[string]interface{}{
		"correctness":     corr,
		"misconceptions":  misc,
		"clarity":         clarity,
		"personalization": pers,
		"qa":              qa,
	}

	return synth, grade, nil
}

// runPass invokes one agent and records its latency and failures.
func (s *reviewService) runPass(ctx context.Context, name, system, user string) (map[string]interface{}, error) {
	ctx, span := s.tracer.Start(ctx, "review.pass", trace.WithAttributes(
		attribute.String("review.pass", name),
	))
	defer span.End()

	start := time.Now()
	output, err := s.provider.GenerateJSON(ctx, system, user)
	observability.ReviewPassDuration().WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ReviewPassFailures().WithLabelValues(name).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "pass failed")
		return nil, fmt.Errorf("%s pass failed: %w", name, err)
	}

	return output, nil
}

func (s *reviewService) publishGraded(submission models.Submission, result models.FeedbackResult) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	payload, err := json.Marshal(dto.PushPayload{
		MoodleUserID:       submission.StudentID,
		MoodleSubmissionID: submission.MoodleSubmissionID,
		MoodleAssignID:     submission.AssignmentID,
		Grade:              result.Grade,
		FeedbackText:       result.FeedbackText,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode graded event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish graded event")
	}
}

// gradeFromQScores fuses the per-question correctness scores into the final
// grade: sum of Q1..Q3 over 9, rescaled to 100 and clamped. Missing or
// malformed scores count as zero.
func gradeFromQScores(qScores map[string]interface{}) int {
	total := 0
	for _, key := range []string{"Q1", "Q2", "Q3"} {
		total += coerceInt(qScores[key])
	}

	grade := int(math.Round(float64(total) / correctnessMaxRaw * 100))
	if grade < 0 {
		grade = 0
	}
	if grade > 100 {
		grade = 100
	}

	return grade
}

func extractConceptScores(raw interface{}) map[string]float64 {
	scores := map[string]float64{
		"service":            0,
		"clusterip_nodeport": 0,
		"networkpolicy":      0,
	}

	object, ok := raw.(map[string]interface{})
	if !ok {
		return scores
	}
	for name := range scores {
		scores[name] = coerceFloat(object[name])
	}

	return scores
}

func encodeJSON(value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// capText trims the text and truncates it to max characters.
func capText(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}

func coerceInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func coerceFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func coerceString(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
