// Package research implements the research loop registry: a persistent,
// agent-scoped state machine that tracks multi-round research topics through
// agent checkpoints and operator continue/close decisions.
package research

// Loop states.
const (
	StateActive           = "active"
	StateAwaitingDecision = "awaiting_decision"
	StateClosed           = "closed"
)

// Loop priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Checkpoint recommendations.
const (
	RecommendContinue   = "continue"
	RecommendStop       = "stop"
	RecommendNeedsInput = "needs_input"
)

// Operator decisions.
const (
	DecisionContinue = "continue"
	DecisionClose    = "close"
)

// List views.
const (
	ViewAll           = "all"
	ViewNeedsDecision = "needs_decision"
	ViewNeedsReview   = "needs_review"
	ViewHot           = "hot"
	ViewStale         = "stale"
)

// Field limits applied by normalization.
const (
	MaxRoundsCeiling  = 20
	DefaultMaxRounds  = 2
	MaxProposedTasks  = 20
	MaxTaskChars      = 280
	MaxCitationLinks  = 20
	MaxCitationChars  = 500
	MaxCounterpoints  = 10
	MaxCounterChars   = 280
	MaxWhyNowChars    = 280
	DefaultStaleHours = 24
	MaxStaleHours     = 720
	DefaultListLimit  = 20
	MaxListLimit      = 100
)

// SchemaVersion is the persisted document version this package reads and
// writes. Documents with any other version are treated as empty.
const SchemaVersion = 1

// Document is the persisted registry: one JSON file holding every loop.
type Document struct {
	Version int                    `json:"version"`
	Loops   map[string]*LoopRecord `json:"loops"`
}

// NewDocument returns an empty v1 document.
func NewDocument() *Document {
	return &Document{Version: SchemaVersion, Loops: map[string]*LoopRecord{}}
}

// LoopRecord is one research loop. Timestamps are Unix milliseconds.
type LoopRecord struct {
	LoopID              string             `json:"loopId"`
	Topic               string             `json:"topic"`
	OwnerAgentID        string             `json:"ownerAgentId"`
	State               string             `json:"state"`
	CurrentRound        int                `json:"currentRound"`
	MaxRounds           int                `json:"maxRounds"`
	Priority            string             `json:"priority"`
	CreatedAt           int64              `json:"createdAt"`
	UpdatedAt           int64              `json:"updatedAt"`
	StartedBySessionKey string             `json:"startedBySessionKey,omitempty"`
	ClosedAt            *int64             `json:"closedAt,omitempty"`
	CloseReason         string             `json:"closeReason,omitempty"`
	Checkpoints         []CheckpointRecord `json:"checkpoints"`
	Decisions           []DecisionRecord   `json:"decisions"`
}

// CheckpointRecord is an agent-produced synthesis concluding one round.
// Rating fields are nil when the agent did not supply them.
type CheckpointRecord struct {
	Round                int      `json:"round"`
	Summary              string   `json:"summary"`
	Critique             string   `json:"critique,omitempty"`
	Recommendation       string   `json:"recommendation,omitempty"`
	ProposedTasks        []string `json:"proposedTasks,omitempty"`
	Importance           *int     `json:"importance,omitempty"`
	Urgency              *int     `json:"urgency,omitempty"`
	Confidence           *int     `json:"confidence,omitempty"`
	EvidenceQuality      *int     `json:"evidenceQuality,omitempty"`
	CitationLinks        []string `json:"citationLinks,omitempty"`
	Counterpoints        []string `json:"counterpoints,omitempty"`
	WhyNow               string   `json:"whyNow,omitempty"`
	AnalysisQualityScore int      `json:"analysisQualityScore"`
	PriorityScore        *int     `json:"priorityScore,omitempty"`
	CreatedAt            int64    `json:"createdAt"`
}

// DecisionRecord is an operator choice recorded against a round.
type DecisionRecord struct {
	Round     int    `json:"round"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// LoopSummary is the per-loop projection returned by list.
type LoopSummary struct {
	LoopID                   string `json:"loopId"`
	Topic                    string `json:"topic"`
	State                    string `json:"state"`
	CurrentRound             int    `json:"currentRound"`
	MaxRounds                int    `json:"maxRounds"`
	Priority                 string `json:"priority"`
	UpdatedAt                int64  `json:"updatedAt"`
	LastCheckpointAt         *int64 `json:"lastCheckpointAt,omitempty"`
	LastRecommendation       string `json:"lastRecommendation,omitempty"`
	LastAnalysisQualityScore *int   `json:"lastAnalysisQualityScore,omitempty"`
	LastCitationCount        *int   `json:"lastCitationCount,omitempty"`
	LastPriorityScore        *int   `json:"lastPriorityScore,omitempty"`
	NeedsReview              bool   `json:"needsReview"`
}

// SpawnAdvice is the advisory sub-agent recommendation derived from the last
// checkpoint. It is never auto-executed.
type SpawnAdvice struct {
	ShouldSpawn   bool   `json:"shouldSpawn"`
	Reason        string `json:"reason"`
	SuggestedTask string `json:"suggestedTask,omitempty"`
}

// lastCheckpoint returns the most recent checkpoint, or nil.
func (l *LoopRecord) lastCheckpoint() *CheckpointRecord {
	if len(l.Checkpoints) == 0 {
		return nil
	}
	return &l.Checkpoints[len(l.Checkpoints)-1]
}
