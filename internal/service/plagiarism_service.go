package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/observability"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/pkg/embedding"
)

// ErrNoChunks indicates a submission has no chunks to evaluate.
var ErrNoChunks = errors.New("no chunks found for submission")

// DefaultPlagiarismThreshold is the similarity score at or above which a
// chunk pair is considered copied.
const DefaultPlagiarismThreshold = 0.90

// PlagiarismService compares a submission's chunks against the rest of the
// corpus and flags near-duplicates.
type PlagiarismService interface {
	Check(ctx context.Context, submissionID uint, threshold float64) (dto.PlagiarismCheckResponse, error)
}

type plagiarismService struct {
	submissions  repository.SubmissionRepository
	chunks       repository.ChunkRepository
	fingerprints repository.FingerprintRepository
	matches      repository.SimilarityRepository
	embedder     embedding.Provider
	threshold    float64
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewPlagiarismService constructs a PlagiarismService instance.
func NewPlagiarismService(submissions repository.SubmissionRepository, chunks repository.ChunkRepository, fingerprints repository.FingerprintRepository, matches repository.SimilarityRepository, embedder embedding.Provider, threshold float64, logger zerolog.Logger) PlagiarismService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultPlagiarismThreshold
	}

	return &plagiarismService{
		submissions:  submissions,
		chunks:       chunks,
		fingerprints: fingerprints,
		matches:      matches,
		embedder:     embedder,
		threshold:    threshold,
		logger:       logger.With().Str("component", "plagiarism_service").Logger(),
		tracer:       otel.Tracer("github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/service/plagiarism"),
	}
}

// Check evaluates every chunk of the submission against same-question
// chunks from other submissions, records matches at or above the threshold
// and re-evaluates the submission's plagiarism flag once after all chunks
// have been compared. A run with zero matches clears a previously set flag.
// Recorded matches belong to the latest run only and come back in the
// response for audit.
func (s *plagiarismService) Check(ctx context.Context, submissionID uint, threshold float64) (dto.PlagiarismCheckResponse, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = s.threshold
	}

	ctx, span := s.tracer.Start(ctx, "plagiarism.check", trace.WithAttributes(
		attribute.Int64("plagiarism.submission_id", int64(submissionID)),
		attribute.Float64("plagiarism.threshold", threshold),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlagiarismCheckResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.PlagiarismCheckResponse{}, err
	}

	chunks, err := s.chunks.ListBySubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.PlagiarismCheckResponse{}, err
	}
	if len(chunks) == 0 {
		span.SetStatus(codes.Error, "no_chunks")
		return dto.PlagiarismCheckResponse{}, ErrNoChunks
	}

	chunkIDs := make([]uint, 0, len(chunks))
	for _, chunk := range chunks {
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	// Each run replaces the submission's recorded matches so repeated
	// checks never accumulate duplicate evidence rows.
	if err := s.matches.DeleteByChunkIDs(ctx, chunkIDs); err != nil {
		span.RecordError(err)
		return dto.PlagiarismCheckResponse{}, err
	}

	flags := make([]dto.PlagiarismFlag, 0)
	for _, chunk := range chunks {
		vector, err := s.ensureFingerprint(ctx, chunk)
		if err != nil {
			span.RecordError(err)
			return dto.PlagiarismCheckResponse{}, err
		}

		best, found, err := s.bestPeerMatch(ctx, chunk, vector)
		if err != nil {
			span.RecordError(err)
			return dto.PlagiarismCheckResponse{}, err
		}
		if !found || best.Similarity < threshold {
			continue
		}

		match := models.SimilarityMatch{
			ChunkID:        chunk.ID,
			MatchedChunkID: best.MatchedChunkID,
			Similarity:     best.Similarity,
			Decision:       models.SimilarityDecisionFlagged,
			EvidenceNote:   fmt.Sprintf("High similarity on Q%d with submission %d", chunk.QuestionNo, best.MatchedSubmissionID),
		}
		if err := s.matches.Create(ctx, &match); err != nil {
			span.RecordError(err)
			return dto.PlagiarismCheckResponse{}, err
		}

		flags = append(flags, best)
	}

	// One flag decision per run, applied after every chunk was compared.
	changed := false
	if len(flags) > 0 {
		if !submission.PlagiarismFlag || submission.Status != models.SubmissionStatusFlagged {
			submission.PlagiarismFlag = true
			submission.Status = models.SubmissionStatusFlagged
			changed = true
		}
	} else if submission.PlagiarismFlag {
		submission.PlagiarismFlag = false
		if submission.Status == models.SubmissionStatusFlagged {
			submission.Status = models.SubmissionStatusPending
		}
		changed = true
	}
	if changed {
		if err := s.submissions.Update(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.PlagiarismCheckResponse{}, err
		}
	}

	outcome := "clean"
	if len(flags) > 0 {
		outcome = "flagged"
	}
	observability.PlagiarismChecks().WithLabelValues(outcome).Inc()

	recorded, err := s.matches.ListByChunkIDs(ctx, chunkIDs)
	if err != nil {
		span.RecordError(err)
		return dto.PlagiarismCheckResponse{}, err
	}
	matches := make([]dto.MatchRecord, 0, len(recorded))
	for _, match := range recorded {
		matches = append(matches, dto.MatchRecord{
			ID:             match.ID,
			ChunkID:        match.ChunkID,
			MatchedChunkID: match.MatchedChunkID,
			Similarity:     match.Similarity,
			Decision:       match.Decision,
			EvidenceNote:   match.EvidenceNote,
		})
	}

	span.SetAttributes(attribute.Int("plagiarism.flagged_count", len(flags)))
	s.logger.Info().
		Uint("submission_id", submissionID).
		Int("flagged", len(flags)).
		Float64("threshold", threshold).
		Msg("plagiarism check completed")

	return dto.PlagiarismCheckResponse{
		SubmissionID: submissionID,
		Threshold:    threshold,
		Flags:        flags,
		FlaggedCount: len(flags),
		Matches:      matches,
	}, nil
}

// ensureFingerprint returns the chunk's cached vector, computing and
// storing it on first use. Stored fingerprints are never recomputed.
func (s *plagiarismService) ensureFingerprint(ctx context.Context, chunk models.SubmissionChunk) ([]float64, error) {
	stored, err := s.fingerprints.GetByChunkID(ctx, chunk.ID)
	if err == nil {
		return decodeVector(stored.Vector)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, chunk.CleanedText)
	if err != nil {
		return nil, fmt.Errorf("embed chunk %d: %w", chunk.ID, err)
	}

	encoded, err := encodeVector(vector)
	if err != nil {
		return nil, err
	}

	fingerprint := models.ChunkFingerprint{ChunkID: chunk.ID, Vector: encoded}
	if err := s.fingerprints.Ensure(ctx, &fingerprint); err != nil {
		return nil, err
	}

	// A concurrent check may have won the insert race, the stored row wins.
	return decodeVector(fingerprint.Vector)
}

// bestPeerMatch keeps the single highest-similarity peer for the chunk.
// Peers all answer the same question number and never belong to the
// chunk's own submission.
func (s *plagiarismService) bestPeerMatch(ctx context.Context, chunk models.SubmissionChunk, vector []float64) (dto.PlagiarismFlag, bool, error) {
	peers, err := s.chunks.ListPeers(ctx, chunk.QuestionNo, chunk.SubmissionID)
	if err != nil {
		return dto.PlagiarismFlag{}, false, err
	}

	best := dto.PlagiarismFlag{ChunkID: chunk.ID, QuestionNo: chunk.QuestionNo}
	found := false
	for _, peer := range peers {
		peerVector, err := decodeVector(peer.Vector)
		if err != nil {
			s.logger.Warn().Err(err).Uint("chunk_id", peer.ChunkID).Msg("skipping peer with unreadable fingerprint")
			continue
		}

		similarity := embedding.Cosine(vector, peerVector)
		if !found || similarity > best.Similarity {
			best.MatchedChunkID = peer.ChunkID
			best.MatchedSubmissionID = peer.SubmissionID
			best.Similarity = similarity
			found = true
		}
	}

	return best, found, nil
}

func encodeVector(vector []float64) (string, error) {
	raw, err := json.Marshal(vector)
	if err != nil {
		return "", fmt.Errorf("encode fingerprint: %w", err)
	}
	return string(raw), nil
}

func decodeVector(encoded string) ([]float64, error) {
	var vector []float64
	if err := json.Unmarshal([]byte(encoded), &vector); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	return vector, nil
}
