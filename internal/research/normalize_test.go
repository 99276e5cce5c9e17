package research

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestClampRating(t *testing.T) {
	tests := []struct {
		name string
		in   *int
		want *int
	}{
		{"nil", nil, nil},
		{"below", intPtr(0), intPtr(1)},
		{"negative", intPtr(-3), intPtr(1)},
		{"in range", intPtr(3), intPtr(3)},
		{"above", intPtr(9), intPtr(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRating(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("nil mismatch: got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("expected %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestClampMaxRounds(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 2},
		{-5, 1},
		{1, 1},
		{7, 7},
		{20, 20},
		{50, 20},
	}
	for _, tt := range tests {
		if got := ClampMaxRounds(tt.in); got != tt.want {
			t.Errorf("ClampMaxRounds(%d): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestSanitizeList(t *testing.T) {
	in := []string{"  a  ", "", "   ", "b", strings.Repeat("c", 300)}
	got := SanitizeList(in, 20, 280)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected entries: %v", got[:2])
	}
	if len(got[2]) != 280 {
		t.Errorf("expected entry truncated to 280, got %d", len(got[2]))
	}

	long := make([]string, 30)
	for i := range long {
		long[i] = "item"
	}
	if got := SanitizeList(long, 20, 280); len(got) != 20 {
		t.Errorf("expected cap at 20, got %d", len(got))
	}

	if got := SanitizeList([]string{"", "  "}, 20, 280); got != nil {
		t.Errorf("expected nil for all-empty list, got %v", got)
	}
}

func TestNormalizeCheckpointHealsDerivedScores(t *testing.T) {
	cp := CheckpointRecord{
		Summary:    strings.Repeat("s", 90),
		Critique:   "needs more sources",
		Importance: intPtr(9),
		Urgency:    intPtr(4),
		WhyNow:     strings.Repeat("w", 400),
	}
	NormalizeCheckpoint(&cp)

	if *cp.Importance != 5 {
		t.Errorf("expected importance clamped to 5, got %d", *cp.Importance)
	}
	if cp.PriorityScore == nil || *cp.PriorityScore != 20 {
		t.Errorf("expected priority score 20, got %v", cp.PriorityScore)
	}
	if len(cp.WhyNow) != 280 {
		t.Errorf("expected whyNow truncated to 280, got %d", len(cp.WhyNow))
	}
	// 16 (summary) + 20 (critique) + 5 (whyNow)
	if cp.AnalysisQualityScore != 41 {
		t.Errorf("expected quality 41, got %d", cp.AnalysisQualityScore)
	}
}

func TestNormalizeEnumFallbacks(t *testing.T) {
	loop := LoopRecord{
		LoopID:       "x",
		Topic:        " topic ",
		State:        "bogus",
		Priority:     "urgent",
		CurrentRound: 0,
		MaxRounds:    99,
		Checkpoints: []CheckpointRecord{
			{Summary: "s", Recommendation: "maybe"},
		},
	}
	NormalizeLoop(&loop)

	if loop.State != StateActive {
		t.Errorf("expected state fallback to active, got %q", loop.State)
	}
	if loop.Priority != PriorityNormal {
		t.Errorf("expected priority fallback to normal, got %q", loop.Priority)
	}
	if loop.MaxRounds != 20 {
		t.Errorf("expected maxRounds clamped to 20, got %d", loop.MaxRounds)
	}
	if loop.CurrentRound != 1 {
		t.Errorf("expected currentRound raised to 1, got %d", loop.CurrentRound)
	}
	if loop.Topic != "topic" {
		t.Errorf("expected trimmed topic, got %q", loop.Topic)
	}
	if loop.Checkpoints[0].Recommendation != RecommendNeedsInput {
		t.Errorf("expected recommendation fallback to needs_input, got %q", loop.Checkpoints[0].Recommendation)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	loop := LoopRecord{
		LoopID:    "id",
		Topic:     "  t  ",
		State:     "nope",
		MaxRounds: 0,
		CreatedAt: 100,
		UpdatedAt: 50,
		Checkpoints: []CheckpointRecord{
			{
				Summary:       strings.Repeat("s", 45),
				ProposedTasks: []string{" a ", "", strings.Repeat("b", 500)},
				Importance:    intPtr(0),
				Urgency:       intPtr(8),
				WhyNow:        strings.Repeat("w", 300),
			},
		},
	}
	NormalizeLoop(&loop)
	once, err := json.Marshal(loop)
	if err != nil {
		t.Fatal(err)
	}

	NormalizeLoop(&loop)
	twice, err := json.Marshal(loop)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalization not idempotent:\nfirst:  %s\nsecond: %s", once, twice)
	}
	if loop.UpdatedAt != 100 {
		t.Errorf("expected updatedAt raised to createdAt, got %d", loop.UpdatedAt)
	}
}

func TestNormalizeDocumentDropsNilAndFillsIDs(t *testing.T) {
	doc := Document{
		Version: 1,
		Loops: map[string]*LoopRecord{
			"a":   {Topic: "x"},
			"nil": nil,
		},
	}
	NormalizeDocument(&doc)

	if _, ok := doc.Loops["nil"]; ok {
		t.Error("expected nil loop dropped")
	}
	if doc.Loops["a"].LoopID != "a" {
		t.Errorf("expected loopId backfilled from key, got %q", doc.Loops["a"].LoopID)
	}
}
