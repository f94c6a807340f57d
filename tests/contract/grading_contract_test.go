package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/dto"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/handler"
)

type stubRubricService struct{}

func (stubRubricService) Grade(context.Context, uint, float64) (dto.GradeResponse, error) {
	return dto.GradeResponse{}, nil
}

type stubReviewService struct {
	response dto.ReviewResponse
}

func (s stubReviewService) Review(context.Context, uint) (dto.ReviewResponse, error) {
	return s.response, nil
}

func (s stubReviewService) PushPayload(context.Context, uint) (dto.PushPayload, error) {
	return dto.PushPayload{}, nil
}

func TestReviewContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "review.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	response := dto.ReviewResponse{
		SubmissionID: 42,
		FeedbackID:   7,
		Grade:        78,
		FeedbackText: "Solid grasp of Services. Review NetworkPolicy default deny semantics.",
		Confidence:   0.7,
		Result: map[string]interface{}{
			"final_feedback": "Solid grasp of Services. Review NetworkPolicy default deny semantics.",
			"summary":        "Good on Services, weaker on NetworkPolicy.",
			"grade":          78,
			"confidence":     0.7,
			"concept_scores": map[string]interface{}{
				"service":            0.75,
				"clusterip_nodeport": 0.8,
				"networkpolicy":      0.7,
			},
			"agents": map[string]interface{}{
				"correctness":     map[string]interface{}{"scores": map[string]interface{}{"Q1": 2, "Q2": 3, "Q3": 2}},
				"misconceptions":  map[string]interface{}{"misconceptions": []interface{}{}},
				"clarity":         map[string]interface{}{"clarity_score": 0.8},
				"personalization": map[string]interface{}{"personalized_notes": "Keep going."},
				"qa":              map[string]interface{}{"quality_score": 0.82, "approved": true},
			},
		},
	}

	svc := stubReviewService{response: response}
	gradingHandler := handler.NewGradingHandler(stubRubricService{}, svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/submissions")
	gradingHandler.Register(group)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/42/review", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
