package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loopdeck/loopdeck/internal/research"
	"github.com/loopdeck/loopdeck/internal/store"
)

type toolEnv struct {
	mu   sync.Mutex
	now  time.Time
	path string
}

func newToolEnv(t *testing.T) *toolEnv {
	t.Helper()
	return &toolEnv{
		now:  time.UnixMilli(1_700_000_000_000),
		path: filepath.Join(t.TempDir(), "loops.json"),
	}
}

func (e *toolEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(time.Second)
	return e.now
}

func (e *toolEnv) tool(sessionKey string) *ResearchLoopTool {
	st := store.New(e.path, store.Options{
		LockTimeout:  2 * time.Second,
		PollInterval: time.Millisecond,
	})
	reg := research.NewRegistry(st, research.Options{
		SessionKey: sessionKey,
		Clock:      e.clock,
	})
	return NewResearchLoopTool(reg)
}

func execute(t *testing.T, tool *ResearchLoopTool, params map[string]any) map[string]any {
	t.Helper()
	out, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("unparseable envelope %q: %v", out, err)
	}
	return body
}

func startLoop(t *testing.T, tool *ResearchLoopTool, topic string) string {
	t.Helper()
	body := execute(t, tool, map[string]any{"action": "start", "topic": topic})
	if body["status"] != "started" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	return body["loop"].(map[string]any)["loopId"].(string)
}

func TestToolMetadata(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")
	if tool.Name() != "research_loop" {
		t.Errorf("unexpected name %q", tool.Name())
	}
	if tool.Tier() != TierWrite {
		t.Errorf("expected tier %d, got %d", TierWrite, tool.Tier())
	}
	params := tool.Parameters()
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected properties object")
	}
	for _, key := range []string{"action", "loopId", "topic", "summary", "view", "importance"} {
		if _, ok := props[key]; !ok {
			t.Errorf("missing parameter %q", key)
		}
	}
}

func TestToolUnsupportedAction(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")
	body := execute(t, tool, map[string]any{"action": "destroy", "toolCallId": "call-7"})
	if body["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", body)
	}
	if body["error"] != "unsupported action: destroy" {
		t.Errorf("unexpected error: %v", body["error"])
	}
	if body["toolCallId"] != "call-7" {
		t.Errorf("expected toolCallId echo, got %v", body["toolCallId"])
	}
}

func TestToolStartAndEcho(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")
	body := execute(t, tool, map[string]any{
		"action":     "start",
		"topic":      "fusion timelines",
		"priority":   "high",
		"maxRounds":  float64(3),
		"toolCallId": "call-1",
	})
	if body["status"] != "started" || body["toolCallId"] != "call-1" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	loop := body["loop"].(map[string]any)
	if loop["priority"] != "high" || loop["maxRounds"] != float64(3) {
		t.Errorf("unexpected loop: %v", loop)
	}
}

func TestToolMissingRequiredFields(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")

	body := execute(t, tool, map[string]any{"action": "start"})
	if body["status"] != "error" || body["error"] != "topic required" {
		t.Errorf("expected topic required, got %v", body)
	}

	body = execute(t, tool, map[string]any{"action": "status"})
	if body["status"] != "error" || body["error"] != "loopId required" {
		t.Errorf("expected loopId required, got %v", body)
	}

	loopID := startLoop(t, tool, "t")
	body = execute(t, tool, map[string]any{"action": "checkpoint", "loopId": loopID})
	if body["status"] != "error" || body["error"] != "summary required" {
		t.Errorf("expected summary required, got %v", body)
	}
}

func TestToolCheckpointFullFlow(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")
	loopID := startLoop(t, tool, "battery supply chain")

	body := execute(t, tool, map[string]any{
		"action":          "checkpoint",
		"loopId":          loopID,
		"summary":         strings.Repeat("cathode findings ", 12),
		"critique":        "one source is a press release",
		"recommendation":  "continue",
		"proposedTasks":   []any{"trace the cobalt contracts", "compare refinery capacity"},
		"importance":      float64(5),
		"urgency":         float64(4.9),
		"confidence":      float64(2),
		"evidenceQuality": float64(4),
		"citationLinks":   []any{"https://a", "https://b", "https://c"},
		"counterpoints":   []any{"recycling may cover the gap"},
		"whyNow":          "contract renewals close this quarter",
	})
	if body["status"] != "checkpointed" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if body["canContinue"] != true {
		t.Error("expected canContinue=true")
	}
	advice := body["spawnAdvice"].(map[string]any)
	if advice["shouldSpawn"] != true {
		t.Fatalf("expected shouldSpawn, got %v", advice)
	}
	if advice["suggestedTask"] != "trace the cobalt contracts" {
		t.Errorf("unexpected suggested task: %v", advice["suggestedTask"])
	}

	loop := body["loop"].(map[string]any)
	cps := loop["checkpoints"].([]any)
	cp := cps[len(cps)-1].(map[string]any)
	// urgency 4.9 floors to 4, so priorityScore is 20.
	if cp["priorityScore"] != float64(20) {
		t.Errorf("expected priority score 20, got %v", cp["priorityScore"])
	}
	if cp["urgency"] != float64(4) {
		t.Errorf("expected urgency floored to 4, got %v", cp["urgency"])
	}

	body = execute(t, tool, map[string]any{"action": "continue", "loopId": loopID, "reason": "keep digging"})
	if body["status"] != "continued" {
		t.Fatalf("unexpected envelope: %v", body)
	}

	body = execute(t, tool, map[string]any{"action": "close", "loopId": loopID, "reason": "resolved"})
	if body["status"] != "closed" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestToolListViews(t *testing.T) {
	env := newToolEnv(t)
	tool := env.tool("cli:default")

	for i := 0; i < 3; i++ {
		loopID := startLoop(t, tool, "topic")
		execute(t, tool, map[string]any{
			"action":     "checkpoint",
			"loopId":     loopID,
			"summary":    "s",
			"importance": float64(i + 1),
			"urgency":    float64(i + 1),
		})
	}

	body := execute(t, tool, map[string]any{"action": "list", "view": "hot"})
	if body["status"] != "ok" || body["count"] != float64(3) {
		t.Fatalf("unexpected envelope: %v", body)
	}
	loops := body["loops"].([]any)
	first := loops[0].(map[string]any)
	if first["lastPriorityScore"] != float64(9) {
		t.Errorf("expected hottest loop first (score 9), got %v", first["lastPriorityScore"])
	}
}

func TestToolAgentScoping(t *testing.T) {
	env := newToolEnv(t)
	alpha := env.tool("agent:alpha:subagent:1")
	beta := env.tool("agent:beta:subagent:2")

	loopID := startLoop(t, alpha, "private topic")

	body := execute(t, beta, map[string]any{"action": "status", "loopId": loopID})
	if body["status"] != "error" {
		t.Fatalf("expected error, got %v", body)
	}
	if body["error"] != "research loop not accessible: "+loopID {
		t.Errorf("unexpected error: %v", body["error"])
	}

	body = execute(t, beta, map[string]any{"action": "list"})
	if body["count"] != float64(0) {
		t.Errorf("beta should see no loops, got %v", body["count"])
	}
}

func TestToolRegistryIntegration(t *testing.T) {
	env := newToolEnv(t)
	registry := NewRegistry()
	registry.Register(env.tool("cli:default"))

	out, err := registry.Execute(context.Background(), "research_loop", map[string]any{
		"action": "list",
	})
	if err != nil {
		t.Fatalf("execute via registry: %v", err)
	}
	if !strings.Contains(out, `"status":"ok"`) {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := registry.Execute(context.Background(), "missing_tool", nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}
