package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
)

const (
	// weakConceptCount is how many of the lowest-scoring concepts are kept
	// on the profile.
	weakConceptCount = 2
	// trendDelta is the grade movement, in points, that separates
	// improving/declining from stable.
	trendDelta = 5.0
	// summaryMaxLen caps the single-line feedback summary kept on the profile.
	summaryMaxLen = 180
	// defaultHistoryLimit bounds progress views when no limit is given.
	defaultHistoryLimit = 20
)

// ProgressUpdate carries one grading outcome into the student's profile.
type ProgressUpdate struct {
	StudentID     int64
	SubmissionID  uint
	Grade         float64
	FinalFeedback string
	ConceptScores map[string]float64
}

// ProgressService folds grading results into per-student rolling profiles
// and serves the longitudinal progress view.
type ProgressService interface {
	Fold(previous *models.StudentProfile, update ProgressUpdate) (models.StudentProfile, models.ConceptHistory)
	GetProgress(ctx context.Context, studentID int64, limit int) (dto.ProgressResponse, error)
}

type progressService struct {
	profiles repository.ProfileRepository
	feedback repository.FeedbackRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProgressService constructs a ProgressService instance.
func NewProgressService(profiles repository.ProfileRepository, feedback repository.FeedbackRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		profiles: profiles,
		feedback: feedback,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "progress_service").Logger(),
	}
}

// Fold produces the updated profile and the concept-history row for one
// grading outcome. It is pure; persistence happens with the grading result
// in one transaction.
func (s *progressService) Fold(previous *models.StudentProfile, update ProgressUpdate) (models.StudentProfile, models.ConceptHistory) {
	weak := pickWeakConcepts(update.ConceptScores, weakConceptCount)
	encodedWeak, err := json.Marshal(weak)
	if err != nil {
		encodedWeak = []byte("[]")
	}

	var previousGrade *float64
	if previous != nil {
		previousGrade = previous.LastGrade
	}

	grade := update.Grade
	profile := models.StudentProfile{
		StudentID:           update.StudentID,
		WeakConcepts:        encodedWeak,
		Trend:               calcTrend(previousGrade, grade),
		LastFeedbackSummary: summarizeFeedback(update.FinalFeedback, summaryMaxLen),
		LastGrade:           &grade,
	}

	history := models.ConceptHistory{
		StudentID:    update.StudentID,
		SubmissionID: update.SubmissionID,
		Service:      update.ConceptScores["service"],
		ClusterIP:    update.ConceptScores["clusterip_nodeport"],
		NetPolicy:    update.ConceptScores["networkpolicy"],
	}

	return profile, history
}

func (s *progressService) GetProgress(ctx context.Context, studentID int64, limit int) (dto.ProgressResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	cacheKey := fmt.Sprintf("progress:student:%d:%d", studentID, limit)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Int64("student_id", studentID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	response := dto.ProgressResponse{
		StudentID: studentID,
		Profile:   dto.ProfileView{WeakConcepts: []string{}, Trend: models.TrendUnknown},
	}

	profile, err := s.profiles.Get(ctx, studentID)
	switch {
	case err == nil:
		response.Profile = newProfileView(profile)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no grading event yet, serve the empty profile
	default:
		return dto.ProgressResponse{}, err
	}

	results, err := s.feedback.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	response.GradeHistory = make([]dto.GradePoint, 0, len(results))
	for _, result := range results {
		response.GradeHistory = append(response.GradeHistory, dto.GradePoint{
			SubmissionID: result.SubmissionID,
			Grade:        result.Grade,
			Confidence:   result.Confidence,
			CreatedAt:    result.CreatedAt,
		})
	}

	rows, err := s.profiles.ListConceptHistory(ctx, studentID, limit)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	response.ConceptHistory = make([]dto.ConceptPoint, 0, len(rows))
	for _, row := range rows {
		response.ConceptHistory = append(response.ConceptHistory, dto.ConceptPoint{
			SubmissionID: row.SubmissionID,
			Service:      row.Service,
			ClusterIP:    row.ClusterIP,
			NetPolicy:    row.NetPolicy,
			CreatedAt:    row.CreatedAt,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func newProfileView(profile models.StudentProfile) dto.ProfileView {
	weak := []string{}
	if len(profile.WeakConcepts) > 0 {
		if err := json.Unmarshal(profile.WeakConcepts, &weak); err != nil {
			weak = []string{}
		}
	}

	return dto.ProfileView{
		WeakConcepts:        weak,
		Trend:               profile.Trend,
		LastGrade:           profile.LastGrade,
		LastFeedbackSummary: profile.LastFeedbackSummary,
	}
}

// pickWeakConcepts returns the topK lowest-scoring concepts, ascending by
// score. Ties resolve alphabetically so the result is stable.
func pickWeakConcepts(scores map[string]float64, topK int) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		return scores[names[i]] < scores[names[j]]
	})

	if topK > len(names) {
		topK = len(names)
	}
	return names[:topK]
}

// calcTrend classifies grade movement against the previous stored grade.
func calcTrend(previous *float64, grade float64) string {
	if previous == nil {
		return models.TrendUnknown
	}

	diff := grade - *previous
	switch {
	case diff >= trendDelta:
		return models.TrendImproving
	case diff <= -trendDelta:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// summarizeFeedback flattens feedback to a single line and hard-truncates
// it with an ellipsis beyond maxLen characters.
func summarizeFeedback(text string, maxLen int) string {
	flat := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	runes := []rune(flat)
	if len(runes) <= maxLen {
		return flat
	}
	return string(runes[:maxLen]) + "..."
}
