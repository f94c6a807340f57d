package llm

import (
	"context"
	"strings"
)

// MockProvider returns canned structured responses keyed on the agent named
// in the instruction. It needs no network access and keeps the full review
// pipeline runnable in development and tests.
type MockProvider struct{}

// GenerateJSON inspects the instruction pair and returns the matching
// canned object.
func (MockProvider) GenerateJSON(_ context.Context, system, user string) (map[string]interface{}, error) {
	s := strings.ToLower(system + " " + user)

	switch {
	case strings.Contains(s, "correctness agent"):
		return map[string]interface{}{
			"q_scores": map[string]interface{}{"Q1": 2, "Q2": 3, "Q3": 2},
			"key_points_found": map[string]interface{}{
				"Q1": []interface{}{"stable endpoint", "pods", "load balancing"},
				"Q2": []interface{}{"ClusterIP internal", "NodePort external"},
				"Q3": []interface{}{"restrict traffic", "frontend->backend"},
			},
		}, nil
	case strings.Contains(s, "misconception agent"):
		return map[string]interface{}{
			"Q1": map[string]interface{}{"misconceptions": []interface{}{}, "missing_points_top": []interface{}{"Services select pods using labels"}},
			"Q2": map[string]interface{}{"misconceptions": []interface{}{}, "missing_points_top": []interface{}{"Ingress/LoadBalancer commonly used"}},
			"Q3": map[string]interface{}{"misconceptions": []interface{}{}, "missing_points_top": []interface{}{"default deny behaviour requires policy design"}},
		}, nil
	case strings.Contains(s, "clarity agent"):
		return map[string]interface{}{
			"clarity_score": 7.5,
			"writing_suggestions": []interface{}{
				"Use technical terms precisely (e.g. label selector, service discovery).",
				"Keep each answer 2-4 sentences.",
			},
		}, nil
	case strings.Contains(s, "personalization agent"):
		return map[string]interface{}{
			"personalized_notes":      "You are improving on Kubernetes networking basics. Focus next on NetworkPolicy rule directions.",
			"recommended_next_topics": []interface{}{"Service selectors", "Ingress vs NodePort", "NetworkPolicy ingress/egress"},
		}, nil
	case strings.Contains(s, "qa agent"):
		return map[string]interface{}{
			"quality_score": 0.82,
			"issues":        []interface{}{},
			"too_long":      false,
			"contradiction": false,
		}, nil
	case strings.Contains(s, "compress"):
		return map[string]interface{}{
			"confidence":     0.7,
			"final_feedback": "Solid grasp of Services and NodePort. Add label-selector detail and NetworkPolicy direction rules.",
			"strengths":      []interface{}{"Service purpose", "NodePort exposure"},
			"weaknesses":     []interface{}{"NetworkPolicy directions"},
			"next_steps":     []interface{}{"Review label selectors"},
			"concept_scores": map[string]interface{}{"service": 0.75, "clusterip_nodeport": 0.8, "networkpolicy": 0.7},
		}, nil
	default:
		// synthesizer
		return map[string]interface{}{
			"confidence":     0.7,
			"final_feedback": "Good work overall. Improve by adding label-selector detail and mention production exposure via Ingress or LoadBalancer.",
			"strengths":      []interface{}{"Clear Service explanation", "Correct ClusterIP vs NodePort split"},
			"weaknesses":     []interface{}{"NetworkPolicy directions not covered"},
			"next_steps":     []interface{}{"Study NetworkPolicy ingress/egress", "Practice Ingress setups"},
			"concept_scores": map[string]interface{}{"service": 0.75, "clusterip_nodeport": 0.8, "networkpolicy": 0.7},
		}, nil
	}
}
