// Package controller orchestrates conversation sessions: creation,
// switching, message dispatch with optimistic local echo, and the
// approval workflow for agent-proposed actions.
//
// The controller is single-threaded by contract: all operations and Apply
// run on the goroutine that owns the UI state. Gateway calls are returned
// as Effects, run elsewhere, and come back as Events through Apply.
package controller

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/ruthwikreddy07/pm-console/internal/index"
	"github.com/ruthwikreddy07/pm-console/internal/transcript"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
)

const (
	sendFailedNotice   = "⚠️ Connection error."
	uploadFailedNotice = "❌ Upload failed."
	historyNotice      = "Could not load conversation history."
	defaultRejection   = "Rejected by user."
)

// Gateway is the slice of the backend client the controller dispatches to.
// Transcript fetches go through the cache instead.
type Gateway interface {
	Send(ctx context.Context, sessionID, message string) (*gateway.Exchange, error)
	Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*gateway.Exchange, error)
	Approve(ctx context.Context, sessionID string) (*gateway.Exchange, error)
	Reject(ctx context.Context, sessionID, reason string) (*gateway.Exchange, error)
	DeleteHistory(ctx context.Context, sessionID string) error
}

// Controller owns the conversation state for one logged-in user.
type Controller struct {
	user   string
	idx    *index.Store
	cache  *transcript.Cache
	gw     Gateway
	logger *log.Logger
	now    func() time.Time

	state State
	subs  []func(State)
}

func New(user string, idx *index.Store, cache *transcript.Cache, gw Gateway, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		user:   user,
		idx:    idx,
		cache:  cache,
		gw:     gw,
		logger: logger,
		now:    time.Now,
		state:  State{User: user},
	}
}

// Subscribe registers a snapshot listener. Every state change delivers a
// fresh copy to all subscribers, in registration order.
func (c *Controller) Subscribe(fn func(State)) {
	c.subs = append(c.subs, fn)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	return c.state.clone()
}

func (c *Controller) notify() {
	snap := c.state.clone()
	for _, fn := range c.subs {
		fn(snap)
	}
}

func (c *Controller) refreshSessions() {
	c.state.Sessions = c.idx.List(c.user)
	c.state.Groups = index.GroupByRecency(c.state.Sessions, c.now())
}

// Bootstrap loads the user's session index and activates the most recent
// session, creating a fresh one when the index is empty. The returned
// effect, when non-nil, hydrates the activated session.
func (c *Controller) Bootstrap() Effect {
	c.refreshSessions()
	if len(c.state.Sessions) == 0 {
		c.StartNewSession()
		return nil
	}
	return c.SelectSession(c.state.Sessions[0])
}

// StartNewSession creates a session and switches to it. The transcript is
// known-empty, so no fetch happens.
func (c *Controller) StartNewSession() {
	session, err := c.idx.Create(c.user)
	if err != nil {
		c.logger.Error("create session", "err", err)
		c.state.Notice = "Could not create a new session."
		c.notify()
		return
	}
	c.refreshSessions()
	c.state.ActiveID = session.ID
	c.state.Transcript = nil
	c.state.Loading = false
	c.state.Approval = models.ApprovalIdle
	c.state.Notice = ""
	c.notify()
}

// SelectSession makes the session active: the displayed transcript is
// cleared before hydration starts, and any pending approval belongs to
// the previous view so it resets. The returned effect fetches the
// transcript.
func (c *Controller) SelectSession(session models.Session) Effect {
	c.state.ActiveID = session.ID
	c.state.Transcript = nil
	c.state.Loading = true
	c.state.Approval = models.ApprovalIdle
	c.state.Notice = ""
	c.notify()

	sid := session.ID
	reqID := uuid.NewString()
	return func(ctx context.Context) Event {
		messages, err := c.cache.Hydrate(ctx, sid)
		return HydrateResult{RequestID: reqID, SessionID: sid, Messages: messages, Err: err}
	}
}

// DeleteSession removes the session from the index, schedules a
// best-effort remote deletion, and reselects: the most recent remaining
// session, or a brand new one when none remain.
func (c *Controller) DeleteSession(sessionID string) []Effect {
	if err := c.idx.Remove(c.user, sessionID); err != nil {
		c.logger.Error("remove session from index", "session", sessionID, "err", err)
	}
	c.cache.Drop(sessionID)
	c.refreshSessions()

	sid := sessionID
	reqID := uuid.NewString()
	effects := []Effect{func(ctx context.Context) Event {
		err := c.gw.DeleteHistory(ctx, sid)
		return DeleteResult{RequestID: reqID, SessionID: sid, Err: err}
	}}

	if c.state.ActiveID == sessionID {
		if len(c.state.Sessions) > 0 {
			effects = append(effects, c.SelectSession(c.state.Sessions[0]))
		} else {
			c.StartNewSession()
		}
	} else {
		c.notify()
	}
	return effects
}

// SendMessage appends the user's text to the active transcript immediately
// and returns the effect that dispatches it. Empty or whitespace-only
// input is ignored: no transcript mutation, no network call.
func (c *Controller) SendMessage(text string) Effect {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || c.state.ActiveID == "" {
		return nil
	}

	sid := c.state.ActiveID
	c.cache.Append(sid, models.Message{Role: models.RoleUser, Content: trimmed, At: c.now()})
	c.state.Transcript = c.cache.Get(sid)
	c.state.Loading = true
	c.notify()

	reqID := uuid.NewString()
	return func(ctx context.Context) Event {
		ex, err := c.gw.Send(ctx, sid, trimmed)
		return ExchangeResult{RequestID: reqID, SessionID: sid, Op: OpSend, Exchange: ex, Err: err}
	}
}

// UploadArtifact is the file-bearing counterpart of SendMessage: the local
// echo names the file being uploaded rather than its contents.
func (c *Controller) UploadArtifact(path string) Effect {
	if c.state.ActiveID == "" {
		return nil
	}
	name := filepath.Base(path)

	sid := c.state.ActiveID
	c.cache.Append(sid, models.Message{Role: models.RoleUser, Content: "📂 Uploading: " + name + "...", At: c.now()})
	c.state.Transcript = c.cache.Get(sid)
	c.state.Loading = true
	c.notify()

	reqID := uuid.NewString()
	return func(ctx context.Context) Event {
		f, err := os.Open(path)
		if err != nil {
			return ExchangeResult{RequestID: reqID, SessionID: sid, Op: OpUpload, Err: err}
		}
		defer f.Close()
		ex, err := c.gw.Upload(ctx, sid, name, f)
		return ExchangeResult{RequestID: reqID, SessionID: sid, Op: OpUpload, Exchange: ex, Err: err}
	}
}

// Approve confirms the pending action. Valid only while an approval is
// pending; the workflow returns to idle immediately, before the backend
// answers, and stays there whatever the answer is.
func (c *Controller) Approve() Effect {
	if c.state.Approval != models.ApprovalPending || c.state.ActiveID == "" {
		return nil
	}
	c.state.Approval = models.ApprovalIdle
	c.state.Loading = true
	c.notify()

	sid := c.state.ActiveID
	reqID := uuid.NewString()
	return func(ctx context.Context) Event {
		ex, err := c.gw.Approve(ctx, sid)
		return ExchangeResult{RequestID: reqID, SessionID: sid, Op: OpApprove, Exchange: ex, Err: err}
	}
}

// Reject declines the pending action. An empty reason falls back to a
// generic message.
func (c *Controller) Reject(reason string) Effect {
	if c.state.Approval != models.ApprovalPending || c.state.ActiveID == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = defaultRejection
	}
	c.state.Approval = models.ApprovalIdle
	c.state.Loading = true
	c.notify()

	sid := c.state.ActiveID
	reqID := uuid.NewString()
	return func(ctx context.Context) Event {
		ex, err := c.gw.Reject(ctx, sid, reason)
		return ExchangeResult{RequestID: reqID, SessionID: sid, Op: OpReject, Exchange: ex, Err: err}
	}
}

// Apply folds a completed gateway call back into the state. Results for a
// session other than the one they were issued for never touch the active
// view; transcript appends still land in that session's cache.
func (c *Controller) Apply(ev Event) {
	active := ev.sessionID() == c.state.ActiveID

	switch ev := ev.(type) {
	case HydrateResult:
		if !active {
			return
		}
		c.state.Loading = false
		if ev.Err != nil {
			c.logger.Warn("hydrate transcript", "session", ev.SessionID, "request", ev.RequestID, "err", ev.Err)
			c.state.Transcript = nil
			c.state.Notice = historyNotice
		} else {
			c.state.Transcript = ev.Messages
			c.state.Notice = ""
		}

	case ExchangeResult:
		c.applyExchange(ev, active)

	case DeleteResult:
		if ev.Err != nil {
			c.logger.Warn("remote history deletion", "session", ev.SessionID, "request", ev.RequestID, "err", ev.Err)
		}
		return
	}
	c.notify()
}

func (c *Controller) applyExchange(ev ExchangeResult, active bool) {
	if ev.Err != nil {
		c.logger.Warn("dispatch", "err", &DispatchError{Op: ev.Op, SessionID: ev.SessionID, Err: ev.Err})
		switch ev.Op {
		case OpSend:
			// The optimistic echo stays; failure is additive.
			c.cache.Append(ev.SessionID, models.Message{Role: models.RoleSystem, Content: sendFailedNotice, At: c.now()})
		case OpUpload:
			c.cache.Append(ev.SessionID, models.Message{Role: models.RoleSystem, Content: uploadFailedNotice, At: c.now()})
		case OpApprove, OpReject:
			// The decision already happened locally; nothing to append.
		}
		if active {
			c.state.Transcript = c.cache.Get(ev.SessionID)
			c.state.Loading = false
		}
		return
	}

	reply := ""
	if ev.Exchange != nil {
		reply = ev.Exchange.Reply
	}
	if reply != "" {
		c.cache.Append(ev.SessionID, models.Message{Role: models.RoleAgent, Content: reply, At: c.now()})
	}
	if !active {
		return
	}
	c.state.Transcript = c.cache.Get(ev.SessionID)
	c.state.Loading = false
	if (ev.Op == OpSend || ev.Op == OpUpload) && ev.Exchange != nil && ev.Exchange.ApprovalRequired {
		c.state.Approval = models.ApprovalPending
	}
}
