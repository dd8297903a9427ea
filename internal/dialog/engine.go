// Package dialog runs the multi-step conversational flows. Each flow is
// its own state machine with a private state enum and a private draft;
// the engine owns one session per user and routes free-text messages to
// whichever flow that user has active.
package dialog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reply is what a flow asks the transport to show. Keyboard rows become
// selectable options; a nil Keyboard removes any previous one. The
// transport must still accept the same choices as typed text.
type Reply struct {
	Text     string
	Keyboard [][]string
}

// Outcome tells the engine whether a flow keeps running after handling
// one input.
type Outcome int

const (
	// Continue keeps the session alive; the same flow gets the next
	// message.
	Continue Outcome = iota
	// Completed ends the session after a successful persist.
	Completed
	// Cancelled ends the session discarding the draft: explicit cancel,
	// rejection at a confirmation, a failed lookup, or a failed save.
	Cancelled
)

// Flow is one conversational form. Start issues the first prompt;
// Handle consumes one user message and advances (or re-prompts) the
// flow's internal state machine. Flows never return errors to the
// transport: every failure path becomes a user-facing reply with a
// terminal outcome.
type Flow interface {
	Name() string
	Start(ctx context.Context) Reply
	Handle(ctx context.Context, input string) (Reply, Outcome)
}

type session struct {
	id   string
	flow Flow
}

// Engine holds the per-user sessions and the authorization gate every
// flow entry passes through.
type Engine struct {
	mu         sync.Mutex
	sessions   map[int64]*session
	authorized func(userID int64) bool
	log        zerolog.Logger
}

// NewEngine builds an engine. authorized is consulted once per flow
// entry, before any prompt is shown.
func NewEngine(authorized func(int64) bool, log zerolog.Logger) *Engine {
	return &Engine{
		sessions:   make(map[int64]*session),
		authorized: authorized,
		log:        log,
	}
}

// UnauthorizedReply is returned on any flow entry by a user not on the
// allow-list.
var UnauthorizedReply = Reply{Text: "You are not authorized to use this bot.\nContact the system administrator."}

// StartFlow begins a flow for a user, replacing any session already in
// progress. The replaced draft is discarded whole; nothing from it can
// leak into the new flow, which gets a fresh session id.
func (e *Engine) StartFlow(ctx context.Context, userID int64, flow Flow) Reply {
	if !e.authorized(userID) {
		e.log.Warn().Int64("user_id", userID).Str("flow", flow.Name()).Msg("Unauthorized flow entry")
		return UnauthorizedReply
	}

	s := &session{id: uuid.NewString(), flow: flow}

	e.mu.Lock()
	if old, ok := e.sessions[userID]; ok {
		e.log.Info().Int64("user_id", userID).Str("replaced_flow", old.flow.Name()).Msg("Replacing active session")
	}
	e.sessions[userID] = s
	e.mu.Unlock()

	e.log.Info().Int64("user_id", userID).Str("flow", flow.Name()).Str("session_id", s.id).Msg("Flow started")
	return flow.Start(ctx)
}

// HandleMessage routes a free-text message to the user's active flow.
// ok is false when the user has no session, meaning the transport should
// treat the text as a fresh command.
func (e *Engine) HandleMessage(ctx context.Context, userID int64, text string) (Reply, bool) {
	e.mu.Lock()
	s, active := e.sessions[userID]
	e.mu.Unlock()
	if !active {
		return Reply{}, false
	}

	reply, outcome := s.flow.Handle(ctx, text)
	if outcome != Continue {
		e.drop(userID, s.id)
		e.log.Info().
			Int64("user_id", userID).
			Str("flow", s.flow.Name()).
			Bool("completed", outcome == Completed).
			Msg("Flow finished")
	}
	return reply, true
}

// Cancel terminates the user's active flow, if any, discarding its
// draft. It is accepted at every state of every flow.
func (e *Engine) Cancel(userID int64) Reply {
	e.mu.Lock()
	s, active := e.sessions[userID]
	if active {
		delete(e.sessions, userID)
	}
	e.mu.Unlock()

	if active {
		e.log.Info().Int64("user_id", userID).Str("flow", s.flow.Name()).Msg("Flow cancelled")
	}
	return Reply{Text: "Operation cancelled.\nUse /start to see the available commands."}
}

// Active reports whether the user has a flow in progress.
func (e *Engine) Active(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[userID]
	return ok
}

// drop removes the session only if it is still the same instance; a
// flow finishing must not tear down a session that already replaced it.
func (e *Engine) drop(userID int64, sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[userID]; ok && s.id == sessionID {
		delete(e.sessions, userID)
	}
}
