package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/grocery-core/pkg/core/banner"
	"github.com/LENAX/grocery-core/pkg/core/deeplink"
	"github.com/LENAX/grocery-core/pkg/plugin"
	"github.com/LENAX/grocery-core/pkg/store"
)

type fakeAcceptor struct {
	mu     sync.Mutex
	calls  []string
	result store.AcceptResult
	err    error
	panic  bool
	block  chan struct{}
}

func (a *fakeAcceptor) AcceptInvitation(ctx context.Context, token string) (store.AcceptResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, token)
	a.mu.Unlock()
	if a.block != nil {
		<-a.block
	}
	if a.panic {
		panic("store exploded")
	}
	return a.result, a.err
}

func (a *fakeAcceptor) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type fakeDecliner struct {
	mu      sync.Mutex
	tokens  []string
	release chan struct{}
	err     error
}

func (d *fakeDecliner) DeclineInvitation(ctx context.Context, token string) error {
	if d.release != nil {
		<-d.release
	}
	d.mu.Lock()
	d.tokens = append(d.tokens, token)
	d.mu.Unlock()
	return d.err
}

const weeklyLink = "grocerylist://invite?token=tok-1&from=Ann&list=Weekly"

func newTestFlow(acceptor Acceptor, decliner store.Decliner) (*Flow, *banner.Banner) {
	b := banner.New()
	return NewFlow(deeplink.NewInterpreter("", ""), acceptor, decliner, b), b
}

func TestFlow_ReceiveValidLink(t *testing.T) {
	f, b := newTestFlow(&fakeAcceptor{}, nil)

	assert.Equal(t, OutcomeQueued, f.HandleURL(weeklyLink))
	assert.Equal(t, FlowStatePending, f.State())

	p, ok := f.Pending()
	require.True(t, ok)
	assert.Equal(t, "tok-1", p.Token)
	assert.Equal(t, "Ann", p.FromName)
	assert.Equal(t, "Weekly", p.ListName)
	assert.Empty(t, b.Text())
}

func TestFlow_NonInvitationIgnoredSilently(t *testing.T) {
	f, b := newTestFlow(&fakeAcceptor{}, nil)

	assert.Equal(t, OutcomeIgnored, f.HandleURL("https://example.com/"))
	assert.Equal(t, OutcomeIgnored, f.HandleURL("grocerylist://invite?from=Ann"))
	assert.Equal(t, OutcomeIgnored, f.Receive(deeplink.Payload{}))
	assert.Equal(t, FlowStateIdle, f.State())
	assert.Empty(t, b.Text())
}

func TestFlow_ExpiredNeverPending(t *testing.T) {
	f, b := newTestFlow(&fakeAcceptor{}, nil)

	outcome := f.HandleURL("grocerylist://invite?token=old&expires=2000-01-01T00:00:00Z")
	assert.Equal(t, OutcomeExpired, outcome)
	assert.Equal(t, FlowStateIdle, f.State())
	_, ok := f.Pending()
	assert.False(t, ok)
	assert.Equal(t, MessageExpired, b.Text())
}

func TestFlow_ExpiryUsesInjectedClock(t *testing.T) {
	b := banner.New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFlow(nil, &fakeAcceptor{}, nil, b, WithNow(func() time.Time { return now }))

	assert.Equal(t, OutcomeQueued, f.HandleURL("grocerylist://invite?token=t&expires=2024-01-02T00:00:00Z"))

	now = now.Add(48 * time.Hour)
	assert.Equal(t, OutcomeExpired, f.HandleURL("grocerylist://invite?token=u&expires=2024-01-02T00:00:00Z"))

	p, ok := f.Pending()
	require.True(t, ok)
	assert.Equal(t, "t", p.Token)
}

func TestFlow_LastLinkWins(t *testing.T) {
	f, _ := newTestFlow(&fakeAcceptor{}, nil)

	f.HandleURL("grocerylist://invite?token=first")
	f.HandleURL("grocerylist://invite?token=second&list=Party")

	p, ok := f.Pending()
	require.True(t, ok)
	assert.Equal(t, "second", p.Token)
	assert.Equal(t, "Party", p.ListName)
}

func TestFlow_AcceptSuccess(t *testing.T) {
	acceptor := &fakeAcceptor{result: store.AcceptResult{Success: true}}
	f, b := newTestFlow(acceptor, nil)
	f.HandleURL(weeklyLink)

	assert.Equal(t, OutcomeAccepted, f.Accept(context.Background()))
	assert.Equal(t, `Successfully joined "Weekly"!`, b.Text())
	assert.Equal(t, FlowStateIdle, f.State())
	assert.Equal(t, []string{"tok-1"}, acceptor.calls)
	_, ok := f.Pending()
	assert.False(t, ok)
}

func TestFlow_AcceptSuccessDefaultListName(t *testing.T) {
	f, b := newTestFlow(&fakeAcceptor{result: store.AcceptResult{Success: true}}, nil)
	f.HandleURL("grocerylist://invite?token=t")

	f.Accept(context.Background())
	assert.Equal(t, `Successfully joined "grocery list"!`, b.Text())
}

func TestFlow_AcceptBusinessFailure(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		banner  string
		outcome Outcome
	}{
		{"reason shown", "Invitation has expired", "Invitation has expired", OutcomeRejected},
		{"default reason", "", MessageAcceptFailed, OutcomeRejected},
		{"unauthenticated translated", "User not authenticated", MessageUnauthenticated, OutcomeUnauthenticated},
		{"unauthenticated substring", "Error: User not authenticated (401)", MessageUnauthenticated, OutcomeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acceptor := &fakeAcceptor{result: store.AcceptResult{Success: false, Error: tt.reason}}
			f, b := newTestFlow(acceptor, nil)
			f.HandleURL(weeklyLink)

			assert.Equal(t, tt.outcome, f.Accept(context.Background()))
			assert.Equal(t, tt.banner, b.Text())
			assert.Equal(t, FlowStateIdle, f.State())
			_, ok := f.Pending()
			assert.False(t, ok)
			assert.Equal(t, 1, acceptor.callCount())
		})
	}
}

func TestFlow_UnauthenticatedBannerDiffersFromRawError(t *testing.T) {
	raw := "User not authenticated"
	f, b := newTestFlow(&fakeAcceptor{result: store.AcceptResult{Error: raw}}, nil)
	f.HandleURL(weeklyLink)
	f.Accept(context.Background())

	assert.NotEqual(t, raw, b.Text())
	assert.Contains(t, b.Text(), "Set your name")
}

func TestFlow_AcceptErrorAndPanicBehaveAlike(t *testing.T) {
	for name, acceptor := range map[string]*fakeAcceptor{
		"error": {err: errors.New("network down")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			f, b := newTestFlow(acceptor, nil)
			f.HandleURL(weeklyLink)

			var outcome Outcome
			require.NotPanics(t, func() { outcome = f.Accept(context.Background()) })
			assert.Equal(t, OutcomeError, outcome)
			assert.Equal(t, MessageUnexpected, b.Text())
			assert.Equal(t, FlowStateIdle, f.State())
			_, ok := f.Pending()
			assert.False(t, ok)
		})
	}
}

func TestFlow_AcceptWrappedNotAuthenticatedError(t *testing.T) {
	acceptor := &fakeAcceptor{err: fmt.Errorf("accept: %w", store.ErrNotAuthenticated)}
	f, b := newTestFlow(acceptor, nil)
	f.HandleURL(weeklyLink)

	assert.Equal(t, OutcomeUnauthenticated, f.Accept(context.Background()))
	assert.Equal(t, MessageUnauthenticated, b.Text())
}

func TestFlow_NoopStoreAccept(t *testing.T) {
	f, b := newTestFlow(store.NewNoopStore(errors.New("db open failed")), nil)
	f.HandleURL(weeklyLink)

	assert.Equal(t, OutcomeRejected, f.Accept(context.Background()))
	assert.Equal(t, "Store initialization failed", b.Text())
}

func TestFlow_AcceptWithoutPending(t *testing.T) {
	acceptor := &fakeAcceptor{}
	f, _ := newTestFlow(acceptor, nil)

	assert.Equal(t, OutcomeNoPending, f.Accept(context.Background()))
	assert.Equal(t, OutcomeNoPending, f.Decline(context.Background()))
	assert.Zero(t, acceptor.callCount())
}

func TestFlow_AcceptOnlyOncePerConfirmation(t *testing.T) {
	acceptor := &fakeAcceptor{result: store.AcceptResult{Success: true}}
	f, _ := newTestFlow(acceptor, nil)
	f.HandleURL(weeklyLink)

	f.Accept(context.Background())
	assert.Equal(t, OutcomeNoPending, f.Accept(context.Background()))
	assert.Equal(t, 1, acceptor.callCount())
}

func TestFlow_LinkDuringAcceptingIsDropped(t *testing.T) {
	acceptor := &fakeAcceptor{result: store.AcceptResult{Success: true}, block: make(chan struct{})}
	f, b := newTestFlow(acceptor, nil)
	f.HandleURL(weeklyLink)

	done := make(chan Outcome, 1)
	go func() { done <- f.Accept(context.Background()) }()

	require.Eventually(t, func() bool { return f.State() == FlowStateAccepting }, time.Second, time.Millisecond)

	assert.Equal(t, OutcomeBusy, f.HandleURL("grocerylist://invite?token=other"))
	assert.Equal(t, OutcomeBusy, f.Accept(context.Background()))
	assert.Equal(t, OutcomeBusy, f.Decline(context.Background()))
	p, _ := f.Pending()
	assert.Equal(t, "tok-1", p.Token)

	close(acceptor.block)
	assert.Equal(t, OutcomeAccepted, <-done)
	assert.Equal(t, `Successfully joined "Weekly"!`, b.Text())
	assert.Equal(t, 1, acceptor.callCount())
}

func TestFlow_DeclineClearsBeforeNotificationSettles(t *testing.T) {
	decliner := &fakeDecliner{release: make(chan struct{}), err: errors.New("backend unavailable")}
	f, b := newTestFlow(&fakeAcceptor{}, decliner)
	f.HandleURL(weeklyLink)

	assert.Equal(t, OutcomeDeclined, f.Decline(context.Background()))

	// 通知仍被阻塞，本地状态已清除
	assert.Equal(t, FlowStateIdle, f.State())
	_, ok := f.Pending()
	assert.False(t, ok)

	close(decliner.release)
	f.Wait()

	assert.Equal(t, []string{"tok-1"}, decliner.tokens)
	assert.Empty(t, b.Text())
}

func TestFlow_DeclineWithCanceledContext(t *testing.T) {
	decliner := &fakeDecliner{}
	f, _ := newTestFlow(&fakeAcceptor{}, decliner)
	f.HandleURL(weeklyLink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, OutcomeDeclined, f.Decline(ctx))
	f.Wait()
	assert.Equal(t, []string{"tok-1"}, decliner.tokens)
}

func TestFlow_DeclineWithoutBackend(t *testing.T) {
	f, _ := newTestFlow(&fakeAcceptor{}, nil)
	f.HandleURL(weeklyLink)

	assert.Equal(t, OutcomeDeclined, f.Decline(context.Background()))
	f.Wait()
	assert.Equal(t, FlowStateIdle, f.State())
}

type recordingPlugin struct {
	mu     sync.Mutex
	events []plugin.TriggerEvent
}

func (p *recordingPlugin) Name() string { return "recorder" }
func (p *recordingPlugin) Init(map[string]string) error { return nil }
func (p *recordingPlugin) Execute(data plugin.PluginData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, data.Event)
	return nil
}

func TestFlow_Hooks(t *testing.T) {
	pm := plugin.NewPluginManager()
	rec := &recordingPlugin{}
	require.NoError(t, pm.Register(rec))
	for _, event := range []plugin.TriggerEvent{
		plugin.EventInvitationReceived,
		plugin.EventInvitationExpired,
		plugin.EventInvitationAccepted,
		plugin.EventInvitationRejected,
		plugin.EventInvitationDeclined,
	} {
		require.NoError(t, pm.Bind(plugin.PluginBinding{PluginName: rec.Name(), Event: event}))
	}

	acceptor := &fakeAcceptor{result: store.AcceptResult{Success: true}}
	f := NewFlow(nil, acceptor, nil, banner.New(), WithHooks(pm))

	f.HandleURL("grocerylist://invite?token=old&expires=2000-01-01T00:00:00Z")
	f.HandleURL(weeklyLink)
	f.Accept(context.Background())
	f.HandleURL(weeklyLink)
	f.Decline(context.Background())
	acceptor.result = store.AcceptResult{Error: "nope"}
	f.HandleURL(weeklyLink)
	f.Accept(context.Background())

	assert.Equal(t, []plugin.TriggerEvent{
		plugin.EventInvitationExpired,
		plugin.EventInvitationReceived,
		plugin.EventInvitationAccepted,
		plugin.EventInvitationReceived,
		plugin.EventInvitationDeclined,
		plugin.EventInvitationReceived,
		plugin.EventInvitationRejected,
	}, rec.events)
}

func TestHTTPBackend_DeclineInvitation(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if r.URL.Path == "/invitations/bad/decline" {
			http.Error(w, "unknown invitation", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL+"/", time.Second)

	require.NoError(t, backend.DeclineInvitation(context.Background(), "tok-1"))
	assert.Equal(t, "/invitations/tok-1/decline", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	err := backend.DeclineInvitation(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFlowState_Transitions(t *testing.T) {
	assert.True(t, FlowStateIdle.CanTransitionTo(FlowStatePending))
	assert.False(t, FlowStateIdle.CanTransitionTo(FlowStateAccepting))
	assert.True(t, FlowStatePending.CanTransitionTo(FlowStatePending))
	assert.True(t, FlowStatePending.CanTransitionTo(FlowStateAccepting))
	assert.True(t, FlowStatePending.CanTransitionTo(FlowStateIdle))
	assert.True(t, FlowStateAccepting.CanTransitionTo(FlowStateIdle))
	assert.False(t, FlowStateAccepting.CanTransitionTo(FlowStatePending))
	assert.False(t, FlowState("Bogus").IsValid())
	assert.True(t, FlowStateAccepting.IsValid())
}
