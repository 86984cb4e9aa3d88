package controller

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/ruthwikreddy07/pm-console/internal/index"
	"github.com/ruthwikreddy07/pm-console/internal/transcript"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	exchange *gateway.Exchange
	err      error

	sent       []string
	uploads    []string
	rejections []string
	deleted    []string
	history    map[string][]gateway.HistoryEntry
	historyErr error
}

func (f *fakeGateway) Send(ctx context.Context, sessionID, message string) (*gateway.Exchange, error) {
	f.sent = append(f.sent, message)
	return f.exchange, f.err
}

func (f *fakeGateway) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*gateway.Exchange, error) {
	f.uploads = append(f.uploads, filename)
	return f.exchange, f.err
}

func (f *fakeGateway) Approve(ctx context.Context, sessionID string) (*gateway.Exchange, error) {
	return f.exchange, f.err
}

func (f *fakeGateway) Reject(ctx context.Context, sessionID, reason string) (*gateway.Exchange, error) {
	f.rejections = append(f.rejections, reason)
	return f.exchange, f.err
}

func (f *fakeGateway) DeleteHistory(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func (f *fakeGateway) History(ctx context.Context, sessionID string) ([]gateway.HistoryEntry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[sessionID], nil
}

func newTestController(t *testing.T, gw *fakeGateway) *Controller {
	t.Helper()
	idx := index.NewStore(t.TempDir())
	cache := transcript.NewCache(gw)
	return New("alice", idx, cache, gw, nil)
}

// run executes an effect synchronously and folds the event back in.
func run(ctrl *Controller, eff Effect) Event {
	if eff == nil {
		return nil
	}
	ev := eff(context.Background())
	ctrl.Apply(ev)
	return ev
}

// TestBootstrapEmptyIndex tests that a first run creates and activates a
// fresh session without any transcript fetch
func TestBootstrapEmptyIndex(t *testing.T) {
	ctrl := newTestController(t, &fakeGateway{})

	eff := ctrl.Bootstrap()
	assert.Nil(t, eff)

	st := ctrl.Snapshot()
	assert.NotEmpty(t, st.ActiveID)
	assert.Len(t, st.Sessions, 1)
	assert.Empty(t, st.Transcript)
	assert.False(t, st.Loading)
	assert.Equal(t, models.ApprovalIdle, st.Approval)
}

// TestBootstrapSelectsMostRecent tests that an existing index activates
// its newest session and hydrates it
func TestBootstrapSelectsMostRecent(t *testing.T) {
	gw := &fakeGateway{history: map[string][]gateway.HistoryEntry{}}
	ctrl := newTestController(t, gw)

	first, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	second, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	gw.history[second.ID] = []gateway.HistoryEntry{{Role: "user", Content: "earlier message"}}

	run(ctrl, ctrl.Bootstrap())

	st := ctrl.Snapshot()
	assert.Equal(t, second.ID, st.ActiveID)
	assert.NotEqual(t, first.ID, st.ActiveID)
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, "earlier message", st.Transcript[0].Content)
	assert.False(t, st.Loading)
}

// TestSendOptimisticEcho tests that the user's message appears before the
// backend answers, and the reply lands after it
func TestSendOptimisticEcho(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "On it."}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	eff := ctrl.SendMessage("  draft the roadmap  ")
	require.NotNil(t, eff)

	st := ctrl.Snapshot()
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, models.RoleUser, st.Transcript[0].Role)
	assert.Equal(t, "draft the roadmap", st.Transcript[0].Content)
	assert.True(t, st.Loading)

	ctrl.Apply(eff(context.Background()))

	st = ctrl.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, models.RoleAgent, st.Transcript[1].Role)
	assert.Equal(t, "On it.", st.Transcript[1].Content)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"draft the roadmap"}, gw.sent)
}

// TestSendWhitespaceIsNoOp tests that blank input touches nothing
func TestSendWhitespaceIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	assert.Nil(t, ctrl.SendMessage("   \t\n  "))
	assert.Empty(t, ctrl.Snapshot().Transcript)
	assert.Empty(t, gw.sent)
}

// TestSendFailureKeepsEcho tests that a failed dispatch appends a system
// notice instead of rolling back the user's message
func TestSendFailureKeepsEcho(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	run(ctrl, ctrl.SendMessage("hello?"))

	st := ctrl.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, "hello?", st.Transcript[0].Content)
	assert.Equal(t, models.RoleSystem, st.Transcript[1].Role)
	assert.Equal(t, sendFailedNotice, st.Transcript[1].Content)
	assert.False(t, st.Loading)
	assert.Equal(t, models.ApprovalIdle, st.Approval)
}

// TestUploadOptimisticEcho tests that an upload echoes the filename
// before the backend answers and appends the reply after
func TestUploadOptimisticEcho(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "File received.", ApprovalRequired: true}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("meeting notes"), 0o600))

	eff := ctrl.UploadArtifact(path)
	require.NotNil(t, eff)

	st := ctrl.Snapshot()
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, models.RoleUser, st.Transcript[0].Role)
	assert.Equal(t, "📂 Uploading: notes.txt...", st.Transcript[0].Content)
	assert.True(t, st.Loading)

	ctrl.Apply(eff(context.Background()))

	st = ctrl.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, models.RoleAgent, st.Transcript[1].Role)
	assert.Equal(t, "File received.", st.Transcript[1].Content)
	assert.False(t, st.Loading)
	assert.Equal(t, models.ApprovalPending, st.Approval)
	assert.Equal(t, []string{"notes.txt"}, gw.uploads)
}

// TestUploadUnreadableFile tests that a file that cannot be opened keeps
// the echo and appends the failure notice without reaching the gateway
func TestUploadUnreadableFile(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	run(ctrl, ctrl.UploadArtifact(filepath.Join(t.TempDir(), "missing.txt")))

	st := ctrl.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, "📂 Uploading: missing.txt...", st.Transcript[0].Content)
	assert.Equal(t, models.RoleSystem, st.Transcript[1].Role)
	assert.Equal(t, uploadFailedNotice, st.Transcript[1].Content)
	assert.False(t, st.Loading)
	assert.Empty(t, gw.uploads)
}

// TestUploadGatewayFailureKeepsEcho tests that a failed upload dispatch
// appends the failure notice instead of rolling back the echo
func TestUploadGatewayFailureKeepsEcho(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("q3 numbers"), 0o600))

	run(ctrl, ctrl.UploadArtifact(path))

	st := ctrl.Snapshot()
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, "📂 Uploading: report.pdf...", st.Transcript[0].Content)
	assert.Equal(t, uploadFailedNotice, st.Transcript[1].Content)
	assert.False(t, st.Loading)
	assert.Equal(t, models.ApprovalIdle, st.Approval)
	assert.Equal(t, []string{"report.pdf"}, gw.uploads)
}

// TestLateResponseNeverCrossesSessions tests that a reply arriving after a
// session switch lands in its own session's log, not the displayed one
func TestLateResponseNeverCrossesSessions(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "Late answer.", ApprovalRequired: true}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()
	originID := ctrl.Snapshot().ActiveID

	eff := ctrl.SendMessage("slow question")
	require.NotNil(t, eff)
	ev := eff(context.Background())

	// The user switches away before the reply comes back.
	ctrl.StartNewSession()
	otherID := ctrl.Snapshot().ActiveID
	require.NotEqual(t, originID, otherID)

	ctrl.Apply(ev)

	st := ctrl.Snapshot()
	assert.Empty(t, st.Transcript)
	// Even an approval request from the late reply must not leak in.
	assert.Equal(t, models.ApprovalIdle, st.Approval)

	origin := ctrl.cache.Get(originID)
	require.Len(t, origin, 2)
	assert.Equal(t, "Late answer.", origin[1].Content)
}

// TestLateHydrationDiscarded tests that a transcript fetched for a
// no-longer-active session is dropped entirely
func TestLateHydrationDiscarded(t *testing.T) {
	gw := &fakeGateway{history: map[string][]gateway.HistoryEntry{}}
	ctrl := newTestController(t, gw)

	stale, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	gw.history[stale.ID] = []gateway.HistoryEntry{{Role: "user", Content: "old stuff"}}

	eff := ctrl.SelectSession(stale)
	ev := eff(context.Background())

	ctrl.StartNewSession()
	ctrl.Apply(ev)

	assert.Empty(t, ctrl.Snapshot().Transcript)
}

// TestApprovalLifecycle tests pending entry and the approve exit
func TestApprovalLifecycle(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "Shall I proceed?", ApprovalRequired: true}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()

	run(ctrl, ctrl.SendMessage("reassign the task"))
	assert.Equal(t, models.ApprovalPending, ctrl.Snapshot().Approval)

	// A second approval request while one is pending changes nothing.
	run(ctrl, ctrl.SendMessage("and another thing"))
	assert.Equal(t, models.ApprovalPending, ctrl.Snapshot().Approval)

	gw.exchange = &gateway.Exchange{Reply: "Done, task reassigned."}
	eff := ctrl.Approve()
	require.NotNil(t, eff)

	// Idle immediately, before the backend answers.
	assert.Equal(t, models.ApprovalIdle, ctrl.Snapshot().Approval)
	assert.True(t, ctrl.Snapshot().Loading)

	ctrl.Apply(eff(context.Background()))

	st := ctrl.Snapshot()
	assert.Equal(t, models.ApprovalIdle, st.Approval)
	assert.Equal(t, "Done, task reassigned.", st.Transcript[len(st.Transcript)-1].Content)
	assert.False(t, st.Loading)
}

// TestRejectDefaultsReason tests the reject exit and its fallback reason
func TestRejectDefaultsReason(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "Needs a thumbs up.", ApprovalRequired: true}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()
	run(ctrl, ctrl.SendMessage("do the risky thing"))

	gw.exchange = &gateway.Exchange{Reply: "Okay, standing down."}
	run(ctrl, ctrl.Reject("   "))

	assert.Equal(t, models.ApprovalIdle, ctrl.Snapshot().Approval)
	assert.Equal(t, []string{defaultRejection}, gw.rejections)
}

// TestDecisionsRequirePending tests that approve and reject are ignored
// while the workflow is idle
func TestDecisionsRequirePending(t *testing.T) {
	ctrl := newTestController(t, &fakeGateway{})
	ctrl.Bootstrap()

	assert.Nil(t, ctrl.Approve())
	assert.Nil(t, ctrl.Reject("no"))
}

// TestSessionSwitchClearsApproval tests that a pending approval belongs to
// the view it was raised in
func TestSessionSwitchClearsApproval(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "Approve?", ApprovalRequired: true}}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()
	run(ctrl, ctrl.SendMessage("stage something"))
	require.Equal(t, models.ApprovalPending, ctrl.Snapshot().Approval)

	ctrl.StartNewSession()
	assert.Equal(t, models.ApprovalIdle, ctrl.Snapshot().Approval)
}

// TestDeleteActiveSessionReselects tests that deleting the displayed
// session activates the most recent remaining one
func TestDeleteActiveSessionReselects(t *testing.T) {
	gw := &fakeGateway{history: map[string][]gateway.HistoryEntry{}}
	ctrl := newTestController(t, gw)

	older, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	newer, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	run(ctrl, ctrl.Bootstrap())
	require.Equal(t, newer.ID, ctrl.Snapshot().ActiveID)

	for _, eff := range ctrl.DeleteSession(newer.ID) {
		run(ctrl, eff)
	}

	st := ctrl.Snapshot()
	assert.Equal(t, older.ID, st.ActiveID)
	assert.Len(t, st.Sessions, 1)
	assert.Equal(t, []string{newer.ID}, gw.deleted)
}

// TestDeleteLastSessionCreatesNew tests that the session list never goes
// empty: deleting the only session yields exactly one fresh session
func TestDeleteLastSessionCreatesNew(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(t, gw)
	ctrl.Bootstrap()
	onlyID := ctrl.Snapshot().ActiveID

	for _, eff := range ctrl.DeleteSession(onlyID) {
		run(ctrl, eff)
	}

	st := ctrl.Snapshot()
	require.Len(t, st.Sessions, 1)
	assert.NotEqual(t, onlyID, st.ActiveID)
	assert.Equal(t, st.Sessions[0].ID, st.ActiveID)
	assert.Empty(t, st.Transcript)
}

// TestDeleteInactiveSessionKeepsView tests that deleting a background
// session leaves the displayed one alone
func TestDeleteInactiveSessionKeepsView(t *testing.T) {
	gw := &fakeGateway{history: map[string][]gateway.HistoryEntry{}}
	ctrl := newTestController(t, gw)

	older, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	_, err = ctrl.idx.Create("alice")
	require.NoError(t, err)
	run(ctrl, ctrl.Bootstrap())
	activeID := ctrl.Snapshot().ActiveID

	for _, eff := range ctrl.DeleteSession(older.ID) {
		run(ctrl, eff)
	}

	assert.Equal(t, activeID, ctrl.Snapshot().ActiveID)
	assert.Len(t, ctrl.Snapshot().Sessions, 1)
}

// TestHydrateFailureShowsNotice tests that an unreachable backend leaves
// an empty transcript and a visible notice, not an error state
func TestHydrateFailureShowsNotice(t *testing.T) {
	gw := &fakeGateway{historyErr: errors.New("gateway timeout")}
	ctrl := newTestController(t, gw)

	session, err := ctrl.idx.Create("alice")
	require.NoError(t, err)
	run(ctrl, ctrl.SelectSession(session))

	st := ctrl.Snapshot()
	assert.Empty(t, st.Transcript)
	assert.Equal(t, historyNotice, st.Notice)
	assert.False(t, st.Loading)

	// A successful send afterwards clears nothing retroactively but the
	// conversation keeps working.
	gw.exchange = &gateway.Exchange{Reply: "Still here."}
	run(ctrl, ctrl.SendMessage("are you alive?"))
	assert.Len(t, ctrl.Snapshot().Transcript, 2)
}

// TestSubscribersGetIndependentSnapshots tests that notified state copies
// do not share backing arrays with the controller
func TestSubscribersGetIndependentSnapshots(t *testing.T) {
	gw := &fakeGateway{exchange: &gateway.Exchange{Reply: "ok"}}
	ctrl := newTestController(t, gw)

	var seen []State
	ctrl.Subscribe(func(st State) { seen = append(seen, st) })

	ctrl.Bootstrap()
	run(ctrl, ctrl.SendMessage("first"))

	require.NotEmpty(t, seen)
	mid := seen[len(seen)-2]
	if len(mid.Transcript) > 0 {
		mid.Transcript[0].Content = "tampered"
	}
	assert.NotEqual(t, "tampered", ctrl.Snapshot().Transcript[0].Content)
}
