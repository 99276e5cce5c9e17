package research

import (
	"sort"
)

// CheckpointNeedsReview reports whether the loop's last checkpoint looks thin
// enough to warrant a human look before the next decision: low quality score,
// no critique, or no citations.
func CheckpointNeedsReview(l *LoopRecord) bool {
	cp := l.lastCheckpoint()
	if cp == nil {
		return false
	}
	if cp.AnalysisQualityScore < 65 {
		return true
	}
	if cp.Critique == "" {
		return true
	}
	if len(cp.CitationLinks) < 1 {
		return true
	}
	return false
}

// BuildSpawnAdvice derives the advisory "delegate to a sub-agent?" signal
// from the loop's last checkpoint. When spawning is not advised, Reason names
// the first failing condition, checked in a fixed order.
func BuildSpawnAdvice(l *LoopRecord, canContinue bool) SpawnAdvice {
	cp := l.lastCheckpoint()
	if cp == nil {
		return SpawnAdvice{Reason: "no checkpoint recorded yet"}
	}
	if cp.Recommendation != RecommendContinue {
		return SpawnAdvice{Reason: "last recommendation is not continue"}
	}
	if !canContinue {
		return SpawnAdvice{Reason: "loop cannot continue (max rounds reached or decision pending)"}
	}
	if len(cp.ProposedTasks) == 0 {
		return SpawnAdvice{Reason: "no proposed tasks to delegate"}
	}
	if cp.AnalysisQualityScore < 40 {
		return SpawnAdvice{Reason: "analysis quality too low to justify a sub-agent"}
	}
	if cp.Confidence != nil && *cp.Confidence >= 4 {
		return SpawnAdvice{Reason: "confidence is already high; further delegation adds little"}
	}
	highSignal := l.Priority == PriorityHigh
	if cp.PriorityScore != nil && *cp.PriorityScore >= 12 {
		highSignal = true
	}
	if !highSignal {
		return SpawnAdvice{Reason: "priority signal too weak (low priority score, loop not high priority)"}
	}
	return SpawnAdvice{
		ShouldSpawn:   true,
		Reason:        "high-signal checkpoint with a delegable task",
		SuggestedTask: cp.ProposedTasks[0],
	}
}

// ClampStaleHours clamps the stale window into [1, 720] hours, defaulting
// to 24 when unset.
func ClampStaleHours(h int) int {
	if h == 0 {
		return DefaultStaleHours
	}
	if h < 1 {
		return 1
	}
	if h > MaxStaleHours {
		return MaxStaleHours
	}
	return h
}

// ClampListLimit clamps the list limit into [1, 100], defaulting to 20.
func ClampListLimit(n int) int {
	if n == 0 {
		return DefaultListLimit
	}
	if n < 1 {
		return 1
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}

// Summarize builds the list projection for one loop.
func Summarize(l *LoopRecord) LoopSummary {
	s := LoopSummary{
		LoopID:       l.LoopID,
		Topic:        l.Topic,
		State:        l.State,
		CurrentRound: l.CurrentRound,
		MaxRounds:    l.MaxRounds,
		Priority:     l.Priority,
		UpdatedAt:    l.UpdatedAt,
		NeedsReview:  CheckpointNeedsReview(l),
	}
	if cp := l.lastCheckpoint(); cp != nil {
		at := cp.CreatedAt
		quality := cp.AnalysisQualityScore
		citations := len(cp.CitationLinks)
		s.LastCheckpointAt = &at
		s.LastRecommendation = cp.Recommendation
		s.LastAnalysisQualityScore = &quality
		s.LastCitationCount = &citations
		s.LastPriorityScore = cp.PriorityScore
	}
	return s
}

// ListQuery selects and orders loops for one triage view.
type ListQuery struct {
	State      string
	View       string
	StaleHours int
	Limit      int
}

// SelectLoops applies the view filter and sort over loops already scoped to
// one agent, returning at most Limit summaries. nowMillis drives the stale
// cutoff only; no view mutates state.
func SelectLoops(loops []*LoopRecord, q ListQuery, nowMillis int64) []LoopSummary {
	view := q.View
	if view == "" {
		view = ViewAll
	}

	matched := make([]*LoopRecord, 0, len(loops))
	for _, l := range loops {
		if q.State != "" && l.State != q.State {
			continue
		}
		switch view {
		case ViewNeedsDecision:
			if l.State != StateAwaitingDecision {
				continue
			}
		case ViewNeedsReview:
			if l.State != StateAwaitingDecision || !CheckpointNeedsReview(l) {
				continue
			}
		case ViewHot:
			if l.State != StateAwaitingDecision {
				continue
			}
		case ViewStale:
			cutoff := nowMillis - int64(ClampStaleHours(q.StaleHours))*3600_000
			if l.State != StateActive || l.UpdatedAt > cutoff {
				continue
			}
		}
		matched = append(matched, l)
	}

	if view == ViewHot {
		sort.SliceStable(matched, func(i, j int) bool {
			pi, pj := lastPriorityScore(matched[i]), lastPriorityScore(matched[j])
			if pi != pj {
				return pi > pj
			}
			qi, qj := lastQualityScore(matched[i]), lastQualityScore(matched[j])
			if qi != qj {
				return qi > qj
			}
			return matched[i].UpdatedAt > matched[j].UpdatedAt
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].UpdatedAt > matched[j].UpdatedAt
		})
	}

	limit := ClampListLimit(q.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]LoopSummary, 0, len(matched))
	for _, l := range matched {
		out = append(out, Summarize(l))
	}
	return out
}

// lastPriorityScore sorts undefined priority scores as 0.
func lastPriorityScore(l *LoopRecord) int {
	if cp := l.lastCheckpoint(); cp != nil && cp.PriorityScore != nil {
		return *cp.PriorityScore
	}
	return 0
}

func lastQualityScore(l *LoopRecord) int {
	if cp := l.lastCheckpoint(); cp != nil {
		return cp.AnalysisQualityScore
	}
	return 0
}
