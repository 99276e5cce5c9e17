package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loopdeck/loopdeck/internal/research"
)

// ResearchLoopTool exposes the research loop registry to the agent. Every
// domain failure is returned in-band as a status=error envelope; Execute
// only returns a Go error when the envelope itself cannot be marshalled.
type ResearchLoopTool struct {
	registry *research.Registry
}

// NewResearchLoopTool wraps a registry already scoped to the requester's
// session.
func NewResearchLoopTool(registry *research.Registry) *ResearchLoopTool {
	return &ResearchLoopTool{registry: registry}
}

func (t *ResearchLoopTool) Name() string { return "research_loop" }
func (t *ResearchLoopTool) Tier() int    { return TierWrite }
func (t *ResearchLoopTool) Description() string {
	return "Track a multi-round research topic: start a loop, record analysis checkpoints, and wait for explicit continue/close decisions. Use list views (hot, needs_decision, needs_review, stale) to triage open loops."
}

func (t *ResearchLoopTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "Operation to perform.",
				"enum":        []string{"start", "checkpoint", "continue", "status", "list", "close"},
			},
			"toolCallId": map[string]any{
				"type":        "string",
				"description": "Opaque call id echoed back in the response.",
			},
			"loopId": map[string]any{
				"type":        "string",
				"description": "Target loop id (required for checkpoint, continue, status, close).",
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "Research topic (required for start).",
			},
			"priority": map[string]any{
				"type":        "string",
				"description": "Loop priority (default: normal).",
				"enum":        []string{"low", "normal", "high"},
			},
			"maxRounds": map[string]any{
				"type":        "integer",
				"description": "Round cap for the loop, 1-20 (default: 2).",
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "Checkpoint synthesis of the round's findings (required for checkpoint).",
			},
			"critique": map[string]any{
				"type":        "string",
				"description": "Self-critique of the analysis: gaps, weak assumptions.",
			},
			"recommendation": map[string]any{
				"type":        "string",
				"description": "What should happen next.",
				"enum":        []string{"continue", "stop", "needs_input"},
			},
			"proposedTasks": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Follow-up tasks worth delegating (max 20).",
			},
			"importance": map[string]any{
				"type":        "integer",
				"description": "How much the topic matters, 1-5.",
			},
			"urgency": map[string]any{
				"type":        "integer",
				"description": "How time-sensitive the topic is, 1-5.",
			},
			"confidence": map[string]any{
				"type":        "integer",
				"description": "Confidence in the current conclusions, 1-5.",
			},
			"evidenceQuality": map[string]any{
				"type":        "integer",
				"description": "Strength of the gathered evidence, 1-5.",
			},
			"citationLinks": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Source links backing the summary (max 20).",
			},
			"counterpoints": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Arguments against the current conclusion (max 10).",
			},
			"whyNow": map[string]any{
				"type":        "string",
				"description": "Why this matters right now (max 280 chars).",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Decision rationale (for continue and close).",
			},
			"state": map[string]any{
				"type":        "string",
				"description": "Optional state filter for list.",
				"enum":        []string{"active", "awaiting_decision", "closed"},
			},
			"view": map[string]any{
				"type":        "string",
				"description": "Triage view for list (default: all).",
				"enum":        []string{"all", "needs_decision", "needs_review", "hot", "stale"},
			},
			"staleHours": map[string]any{
				"type":        "integer",
				"description": "Idle window in hours for view=stale (default: 24).",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum loops returned by list, 1-100 (default: 20).",
			},
		},
		"required": []string{"action"},
	}
}

// Execute dispatches one registry operation and renders the response
// envelope. Panics are caught and surfaced as status=error.
func (t *ResearchLoopTool) Execute(ctx context.Context, params map[string]any) (out string, err error) {
	toolCallID := strings.TrimSpace(GetString(params, "toolCallId", ""))
	defer func() {
		if rec := recover(); rec != nil {
			out, err = marshalEnvelope(errorEnvelope(toolCallID, fmt.Sprintf("%v", rec)))
		}
	}()

	action := strings.TrimSpace(GetString(params, "action", ""))
	body, opErr := t.dispatch(ctx, action, params)
	if opErr != nil {
		return marshalEnvelope(errorEnvelope(toolCallID, opErr.Error()))
	}
	if toolCallID != "" {
		body["toolCallId"] = toolCallID
	}
	return marshalEnvelope(body)
}

func (t *ResearchLoopTool) dispatch(ctx context.Context, action string, params map[string]any) (map[string]any, error) {
	switch action {
	case "start":
		loop, err := t.registry.Start(ctx, research.StartParams{
			Topic:     strings.TrimSpace(GetString(params, "topic", "")),
			Priority:  GetString(params, "priority", ""),
			MaxRounds: GetInt(params, "maxRounds", 0),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "started", "loop": loop}, nil

	case "checkpoint":
		result, err := t.registry.Checkpoint(ctx, research.CheckpointParams{
			LoopID:          strings.TrimSpace(GetString(params, "loopId", "")),
			Summary:         strings.TrimSpace(GetString(params, "summary", "")),
			Critique:        GetString(params, "critique", ""),
			Recommendation:  GetString(params, "recommendation", ""),
			ProposedTasks:   GetStringList(params, "proposedTasks"),
			Importance:      GetRating(params, "importance"),
			Urgency:         GetRating(params, "urgency"),
			Confidence:      GetRating(params, "confidence"),
			EvidenceQuality: GetRating(params, "evidenceQuality"),
			CitationLinks:   GetStringList(params, "citationLinks"),
			Counterpoints:   GetStringList(params, "counterpoints"),
			WhyNow:          GetString(params, "whyNow", ""),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"status":      "checkpointed",
			"loop":        result.Loop,
			"canContinue": result.CanContinue,
			"spawnAdvice": result.SpawnAdvice,
		}, nil

	case "continue":
		loop, err := t.registry.Continue(ctx,
			strings.TrimSpace(GetString(params, "loopId", "")),
			strings.TrimSpace(GetString(params, "reason", "")))
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "continued", "loop": loop}, nil

	case "status":
		loop, err := t.registry.Status(ctx, strings.TrimSpace(GetString(params, "loopId", "")))
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok", "loop": loop}, nil

	case "list":
		loops, err := t.registry.List(ctx, research.ListQuery{
			State:      GetString(params, "state", ""),
			View:       GetString(params, "view", ""),
			StaleHours: GetInt(params, "staleHours", 0),
			Limit:      GetInt(params, "limit", 0),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok", "loops": loops, "count": len(loops)}, nil

	case "close":
		loop, err := t.registry.Close(ctx,
			strings.TrimSpace(GetString(params, "loopId", "")),
			strings.TrimSpace(GetString(params, "reason", "")))
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "closed", "loop": loop}, nil

	default:
		return nil, fmt.Errorf("unsupported action: %s", action)
	}
}

func errorEnvelope(toolCallID, message string) map[string]any {
	body := map[string]any{"status": "error", "error": message}
	if toolCallID != "" {
		body["toolCallId"] = toolCallID
	}
	return body
}

func marshalEnvelope(body map[string]any) (string, error) {
	out, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
