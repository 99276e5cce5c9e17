package research

// PriorityScore returns importance * urgency when both ratings are present,
// nil otherwise. With clamped inputs the result is in [1, 25].
func PriorityScore(importance, urgency *int) *int {
	if importance == nil || urgency == nil {
		return nil
	}
	score := *importance * *urgency
	return &score
}

// AnalysisQualityScore computes the 0-100 completeness heuristic for a
// checkpoint. It reads only the checkpoint's own fields; identical inputs
// yield identical scores.
func AnalysisQualityScore(c *CheckpointRecord) int {
	score := 0

	switch n := len(c.Summary); {
	case n >= 160:
		score += 20
	case n >= 80:
		score += 16
	case n >= 40:
		score += 12
	case n >= 20:
		score += 8
	}

	if c.Critique != "" {
		score += 20
	}

	switch n := len(c.CitationLinks); {
	case n >= 3:
		score += 25
	case n >= 1:
		score += 15
	}

	switch n := len(c.Counterpoints); {
	case n >= 2:
		score += 15
	case n == 1:
		score += 10
	}

	switch n := len(c.ProposedTasks); {
	case n >= 2:
		score += 10
	case n == 1:
		score += 6
	}

	if c.EvidenceQuality != nil {
		score += 2 * *c.EvidenceQuality
	}

	if c.WhyNow != "" {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
