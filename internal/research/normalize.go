package research

import "strings"

// Normalization clamps every inbound and persisted record to its documented
// limits. It runs on each load and before each write, and is idempotent.

// ClampRating floors a rating into [1, 5]. Nil stays nil.
func ClampRating(v *int) *int {
	if v == nil {
		return nil
	}
	r := *v
	if r < 1 {
		r = 1
	}
	if r > 5 {
		r = 5
	}
	return &r
}

// ClampMaxRounds clamps a round cap into [1, 20]; a missing (zero) value
// falls back to the default of 2, and negative values clamp to 1.
func ClampMaxRounds(v int) int {
	if v == 0 {
		return DefaultMaxRounds
	}
	if v < 1 {
		return 1
	}
	if v > MaxRoundsCeiling {
		return MaxRoundsCeiling
	}
	return v
}

// TruncateText trims whitespace and cuts the string to max bytes.
func TruncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// SanitizeList trims entries, drops empties, and caps both the list length
// and each entry's length.
func SanitizeList(items []string, maxItems, maxChars int) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := TruncateText(item, maxChars)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) >= maxItems {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeState(s string) string {
	switch s {
	case StateActive, StateAwaitingDecision, StateClosed:
		return s
	default:
		return StateActive
	}
}

func normalizePriority(p string) string {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return p
	default:
		return PriorityNormal
	}
}

func normalizeRecommendation(r string) string {
	switch r {
	case "":
		return ""
	case RecommendContinue, RecommendStop, RecommendNeedsInput:
		return r
	default:
		return RecommendNeedsInput
	}
}

// NormalizeCheckpoint clamps a checkpoint in place and recomputes its derived
// scores so legacy records heal on load.
func NormalizeCheckpoint(c *CheckpointRecord) {
	c.Summary = strings.TrimSpace(c.Summary)
	c.Critique = strings.TrimSpace(c.Critique)
	c.Recommendation = normalizeRecommendation(c.Recommendation)
	c.WhyNow = TruncateText(c.WhyNow, MaxWhyNowChars)
	c.ProposedTasks = SanitizeList(c.ProposedTasks, MaxProposedTasks, MaxTaskChars)
	c.CitationLinks = SanitizeList(c.CitationLinks, MaxCitationLinks, MaxCitationChars)
	c.Counterpoints = SanitizeList(c.Counterpoints, MaxCounterpoints, MaxCounterChars)
	c.Importance = ClampRating(c.Importance)
	c.Urgency = ClampRating(c.Urgency)
	c.Confidence = ClampRating(c.Confidence)
	c.EvidenceQuality = ClampRating(c.EvidenceQuality)
	c.AnalysisQualityScore = AnalysisQualityScore(c)
	c.PriorityScore = PriorityScore(c.Importance, c.Urgency)
}

// NormalizeLoop repairs a loop record: clamps enums and limits, heals derived
// checkpoint scores, and keeps timestamps ordered.
func NormalizeLoop(l *LoopRecord) {
	l.Topic = strings.TrimSpace(l.Topic)
	l.State = normalizeState(l.State)
	l.Priority = normalizePriority(l.Priority)
	l.MaxRounds = ClampMaxRounds(l.MaxRounds)
	if l.CurrentRound < 1 {
		l.CurrentRound = 1
	}
	if l.UpdatedAt < l.CreatedAt {
		l.UpdatedAt = l.CreatedAt
	}
	for i := range l.Checkpoints {
		NormalizeCheckpoint(&l.Checkpoints[i])
	}
}

// NormalizeDocument repairs every loop in the document.
func NormalizeDocument(doc *Document) {
	if doc.Loops == nil {
		doc.Loops = map[string]*LoopRecord{}
	}
	for id, loop := range doc.Loops {
		if loop == nil {
			delete(doc.Loops, id)
			continue
		}
		if loop.LoopID == "" {
			loop.LoopID = id
		}
		NormalizeLoop(loop)
	}
}
