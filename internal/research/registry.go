package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopdeck/loopdeck/internal/identity"
	"github.com/loopdeck/loopdeck/internal/store"
)

// Journal receives one entry per successful mutation. Implementations must
// tolerate being called concurrently; failures never fail the operation.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// JournalEntry describes one registry mutation for the audit trail.
type JournalEntry struct {
	LoopID  string
	AgentID string
	Action  string
	Round   int
	Detail  string
}

// Options configure a Registry. Clock and NewID exist so tests can pin time
// and ids; both default to the real thing.
type Options struct {
	SessionKey     string
	DefaultAgentID string
	Clock          func() time.Time
	NewID          func() string
	Journal        Journal
}

// Registry dispatches the six loop operations against the shared store. It
// keeps no state between operations; every call re-reads the document so
// peer processes stay visible.
type Registry struct {
	store      *store.Store
	sessionKey string
	agentID    string
	now        func() time.Time
	newID      func() string
	journal    Journal
}

// NewRegistry builds a registry scoped to the agent resolved from the
// session key.
func NewRegistry(st *store.Store, opts Options) *Registry {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{
		store:      st,
		sessionKey: opts.SessionKey,
		agentID:    identity.AgentIDForSession(opts.SessionKey, opts.DefaultAgentID),
		now:        now,
		newID:      newID,
		journal:    opts.Journal,
	}
}

// AgentID returns the resolved requester agent id.
func (r *Registry) AgentID() string { return r.agentID }

// StartParams are the inputs for Start.
type StartParams struct {
	Topic     string
	Priority  string
	MaxRounds int
}

// CheckpointParams are the inputs for Checkpoint. Rating fields are nil when
// absent; normalization clamps everything.
type CheckpointParams struct {
	LoopID          string
	Summary         string
	Critique        string
	Recommendation  string
	ProposedTasks   []string
	Importance      *int
	Urgency         *int
	Confidence      *int
	EvidenceQuality *int
	CitationLinks   []string
	Counterpoints   []string
	WhyNow          string
}

// CheckpointResult carries the loop plus the derived continuation signals.
type CheckpointResult struct {
	Loop        *LoopRecord
	CanContinue bool
	SpawnAdvice SpawnAdvice
}

// load reads and normalizes the current document. Missing, unparseable, or
// wrong-version files all yield an empty registry; the next write rewrites
// the file.
func (r *Registry) load() *Document {
	data, ok, err := r.store.Read()
	if err != nil || !ok {
		return NewDocument()
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Version != SchemaVersion {
		return NewDocument()
	}
	NormalizeDocument(&doc)
	return &doc
}

// mutate runs fn under the store lock with a fresh document and commits the
// result when fn reports a change. Nothing is written on error.
func (r *Registry) mutate(ctx context.Context, fn func(doc *Document) (*LoopRecord, bool, error)) (*LoopRecord, error) {
	if err := r.store.Lock(ctx); err != nil {
		return nil, err
	}
	defer r.store.Unlock()

	doc := r.load()
	loop, changed, err := fn(doc)
	if err != nil {
		return nil, err
	}
	if changed {
		NormalizeDocument(doc)
		if err := r.store.WriteJSON(doc); err != nil {
			return nil, err
		}
	}
	return loop, nil
}

func (r *Registry) record(ctx context.Context, entry JournalEntry) {
	if r.journal == nil {
		return
	}
	entry.AgentID = r.agentID
	if err := r.journal.Record(ctx, entry); err != nil {
		slog.Warn("research journal write failed", "action", entry.Action, "loopId", entry.LoopID, "error", err)
	}
}

// findLoop resolves a loopId for the requesting agent. Missing ids and
// foreign ownership produce distinct errors so owners can diagnose from logs
// while existence stays private across agents.
func (r *Registry) findLoop(doc *Document, loopID string) (*LoopRecord, error) {
	if loopID == "" {
		return nil, errors.New("loopId required")
	}
	loop, ok := doc.Loops[loopID]
	if !ok {
		return nil, fmt.Errorf("research loop not found: %s", loopID)
	}
	if loop.OwnerAgentID != r.agentID {
		return nil, fmt.Errorf("research loop not accessible: %s", loopID)
	}
	return loop, nil
}

// touch advances updatedAt without ever moving it backwards.
func touch(loop *LoopRecord, nowMillis int64) int64 {
	if nowMillis < loop.UpdatedAt {
		nowMillis = loop.UpdatedAt
	}
	loop.UpdatedAt = nowMillis
	return nowMillis
}

// Start creates a new loop in state active at round 1.
func (r *Registry) Start(ctx context.Context, p StartParams) (*LoopRecord, error) {
	if p.Topic == "" {
		return nil, errors.New("topic required")
	}
	loop, err := r.mutate(ctx, func(doc *Document) (*LoopRecord, bool, error) {
		now := r.now().UnixMilli()
		loop := &LoopRecord{
			LoopID:              r.newID(),
			Topic:               p.Topic,
			OwnerAgentID:        r.agentID,
			State:               StateActive,
			CurrentRound:        1,
			MaxRounds:           ClampMaxRounds(p.MaxRounds),
			Priority:            normalizePriority(p.Priority),
			CreatedAt:           now,
			UpdatedAt:           now,
			StartedBySessionKey: r.sessionKey,
			Checkpoints:         []CheckpointRecord{},
			Decisions:           []DecisionRecord{},
		}
		doc.Loops[loop.LoopID] = loop
		return loop, true, nil
	})
	if err != nil {
		return nil, err
	}
	r.record(ctx, JournalEntry{LoopID: loop.LoopID, Action: "start", Round: 1, Detail: loop.Topic})
	return loop, nil
}

// Checkpoint appends a round synthesis to an active loop and parks it in
// awaiting_decision.
func (r *Registry) Checkpoint(ctx context.Context, p CheckpointParams) (*CheckpointResult, error) {
	if p.Summary == "" {
		return nil, errors.New("summary required")
	}
	result := &CheckpointResult{}
	loop, err := r.mutate(ctx, func(doc *Document) (*LoopRecord, bool, error) {
		loop, err := r.findLoop(doc, p.LoopID)
		if err != nil {
			return nil, false, err
		}
		if loop.State == StateClosed {
			return nil, false, errors.New("loop is closed")
		}
		if loop.State != StateActive {
			return nil, false, fmt.Errorf("loop must be active to checkpoint (current state: %s)", loop.State)
		}
		now := touch(loop, r.now().UnixMilli())
		cp := CheckpointRecord{
			Round:           loop.CurrentRound,
			Summary:         p.Summary,
			Critique:        p.Critique,
			Recommendation:  p.Recommendation,
			ProposedTasks:   p.ProposedTasks,
			Importance:      p.Importance,
			Urgency:         p.Urgency,
			Confidence:      p.Confidence,
			EvidenceQuality: p.EvidenceQuality,
			CitationLinks:   p.CitationLinks,
			Counterpoints:   p.Counterpoints,
			WhyNow:          p.WhyNow,
			CreatedAt:       now,
		}
		NormalizeCheckpoint(&cp)
		loop.Checkpoints = append(loop.Checkpoints, cp)
		loop.State = StateAwaitingDecision
		result.CanContinue = cp.Recommendation == RecommendContinue && loop.CurrentRound < loop.MaxRounds
		result.SpawnAdvice = BuildSpawnAdvice(loop, result.CanContinue)
		return loop, true, nil
	})
	if err != nil {
		return nil, err
	}
	result.Loop = loop
	r.record(ctx, JournalEntry{LoopID: loop.LoopID, Action: "checkpoint", Round: loop.CurrentRound, Detail: p.Recommendation})
	return result, nil
}

// Continue records an operator continue decision and opens the next round.
func (r *Registry) Continue(ctx context.Context, loopID, reason string) (*LoopRecord, error) {
	loop, err := r.mutate(ctx, func(doc *Document) (*LoopRecord, bool, error) {
		loop, err := r.findLoop(doc, loopID)
		if err != nil {
			return nil, false, err
		}
		if loop.State == StateClosed {
			return nil, false, errors.New("loop is closed")
		}
		if loop.State != StateAwaitingDecision {
			return nil, false, fmt.Errorf("loop is not awaiting_decision (current state: %s)", loop.State)
		}
		if loop.CurrentRound >= loop.MaxRounds {
			return nil, false, fmt.Errorf("cannot continue: max rounds reached (%d)", loop.MaxRounds)
		}
		now := touch(loop, r.now().UnixMilli())
		loop.Decisions = append(loop.Decisions, DecisionRecord{
			Round:     loop.CurrentRound,
			Decision:  DecisionContinue,
			Reason:    reason,
			CreatedAt: now,
		})
		loop.CurrentRound++
		loop.State = StateActive
		return loop, true, nil
	})
	if err != nil {
		return nil, err
	}
	r.record(ctx, JournalEntry{LoopID: loop.LoopID, Action: "continue", Round: loop.CurrentRound, Detail: reason})
	return loop, nil
}

// Close terminates a loop from any non-closed state. Closing an already
// closed loop is a no-op that returns the current record.
func (r *Registry) Close(ctx context.Context, loopID, reason string) (*LoopRecord, error) {
	alreadyClosed := false
	loop, err := r.mutate(ctx, func(doc *Document) (*LoopRecord, bool, error) {
		loop, err := r.findLoop(doc, loopID)
		if err != nil {
			return nil, false, err
		}
		if loop.State == StateClosed {
			alreadyClosed = true
			return loop, false, nil
		}
		now := touch(loop, r.now().UnixMilli())
		loop.State = StateClosed
		loop.ClosedAt = &now
		loop.CloseReason = reason
		loop.Decisions = append(loop.Decisions, DecisionRecord{
			Round:     loop.CurrentRound,
			Decision:  DecisionClose,
			Reason:    reason,
			CreatedAt: now,
		})
		return loop, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !alreadyClosed {
		r.record(ctx, JournalEntry{LoopID: loop.LoopID, Action: "close", Round: loop.CurrentRound, Detail: reason})
	}
	return loop, nil
}

// Status returns one loop. It reads without the lock; a slightly stale but
// always parseable snapshot is acceptable for observers.
func (r *Registry) Status(ctx context.Context, loopID string) (*LoopRecord, error) {
	doc := r.load()
	return r.findLoop(doc, loopID)
}

// List returns the triage projection for the requesting agent. Like Status,
// it reads without the lock.
func (r *Registry) List(ctx context.Context, q ListQuery) ([]LoopSummary, error) {
	doc := r.load()
	owned := make([]*LoopRecord, 0, len(doc.Loops))
	for _, loop := range doc.Loops {
		if loop.OwnerAgentID == r.agentID {
			owned = append(owned, loop)
		}
	}
	return SelectLoops(owned, q, r.now().UnixMilli()), nil
}
