package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"superyield/internal/domain"
	"superyield/internal/reasoner"
	"superyield/internal/risk"
)

type stubReasoner struct {
	mu        sync.Mutex
	reply     string
	err       error
	fragments []string
	streamErr error
	requests  []reasoner.Request
	closed    int
	// block, when set, releases one fragment per send.
	block chan struct{}
}

func (s *stubReasoner) Complete(ctx context.Context, req reasoner.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.reply, s.err
}

func (s *stubReasoner) Stream(ctx context.Context, req reasoner.Request) (reasoner.Stream, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &stubStream{parent: s, ctx: ctx}, nil
}

func (s *stubReasoner) Model() string { return "stub-model" }

func (s *stubReasoner) closedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type stubStream struct {
	parent *stubReasoner
	ctx    context.Context
	i      int
	text   string
	err    error
	closed bool
}

func (s *stubStream) Next() bool {
	if s.i >= len(s.parent.fragments) {
		s.err = s.parent.streamErr
		return false
	}
	if s.parent.block != nil {
		select {
		case <-s.parent.block:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
	}
	s.text = s.parent.fragments[s.i]
	s.i++
	return true
}

func (s *stubStream) Text() string { return s.text }
func (s *stubStream) Err() error   { return s.err }

func (s *stubStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.parent.mu.Lock()
	s.parent.closed++
	s.parent.mu.Unlock()
	return nil
}

const acceptedJSON = `{"targetVault":"0x1","targetProtocol":"GlueX","amount":"1000","reasoning":"priority vault","expectedAPY":12,"currentAPY":11.9,"improvement":0.1,"swapRequired":false,"riskAssessment":"low","confidence":0.9}`

func glueXOpps() []domain.YieldOpportunity {
	return []domain.YieldOpportunity{
		{VaultAddress: "0x1", Protocol: "GlueX", APY: 12, TVL: 2000000, DilutedAPY: 11, Risk: domain.RiskLow, IsGlueXVault: true},
		{VaultAddress: "0x2", Protocol: "Morpho", APY: 7, TVL: 800000, DilutedAPY: 6.8, Risk: domain.RiskMedium},
	}
}

func state() domain.VaultState {
	return domain.VaultState{TotalAssets: "5000", IdleAssets: "1000"}
}

func TestDecideAccepted(t *testing.T) {
	stub := &stubReasoner{reply: acceptedJSON}
	a := &Agent{Reasoner: stub, Validator: &risk.Validator{}, Temperature: 0.3, MaxTokens: 2000}

	res, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !res.OK() || res.Decision.TargetVault != "0x1" {
		t.Fatalf("result=%+v want accepted", res)
	}
	req := stub.requests[0]
	if req.Schema == nil || req.Schema.Name != "allocation_decision" {
		t.Fatalf("schema=%+v", req.Schema)
	}
	if req.Temperature != 0.3 || req.MaxTokens != 2000 {
		t.Fatalf("temperature=%v max_tokens=%d", req.Temperature, req.MaxTokens)
	}
	if !strings.Contains(req.System, "100,000") || !strings.Contains(req.User, "GLUEX VAULTS (PRIORITY)") {
		t.Fatalf("prompt not built from context builder")
	}
}

func TestDecideRejectedConfidence(t *testing.T) {
	reply := strings.Replace(acceptedJSON, `"confidence":0.9`, `"confidence":0.4`, 1)
	a := &Agent{Reasoner: &stubReasoner{reply: reply}}

	res, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.OK() || res.Reason != risk.ReasonConfidenceBelowMinimum {
		t.Fatalf("result=%+v want confidence rejection", res)
	}
	if res.Decision != nil {
		t.Fatalf("rejected result must not carry a decision")
	}
}

func TestDecideMalformed(t *testing.T) {
	a := &Agent{Reasoner: &stubReasoner{reply: `{"targetVault":"0x1"}`}}
	res, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.Reason != risk.ReasonMalformedOutput {
		t.Fatalf("reason=%s want=%s", res.Reason, risk.ReasonMalformedOutput)
	}
}

func TestDecideFencedReply(t *testing.T) {
	a := &Agent{Reasoner: &stubReasoner{reply: "```json\n" + acceptedJSON + "\n```"}}
	res, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !res.OK() {
		t.Fatalf("reason=%s want accepted", res.Reason)
	}
}

func TestDecideServiceError(t *testing.T) {
	cause := errors.New("401 unauthorized")
	a := &Agent{Reasoner: &stubReasoner{err: cause}}
	_, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints())
	var serr *ServiceError
	if !errors.As(err, &serr) || !errors.Is(err, cause) {
		t.Fatalf("err=%v want ServiceError wrapping cause", err)
	}
}

func TestDecideUnconfigured(t *testing.T) {
	var a *Agent
	if _, err := a.Decide(context.Background(), state(), glueXOpps(), domain.DefaultConstraints()); !errors.Is(err, ErrNoReasoner) {
		t.Fatalf("err=%v want ErrNoReasoner", err)
	}
}

func collect(t *testing.T, a *Agent, opps []domain.YieldOpportunity) ([]Event, Result, error) {
	t.Helper()
	events := make(chan Event, 1)
	var (
		res Result
		err error
	)
	go func() {
		defer close(events)
		res, err = a.DecideStream(context.Background(), state(), opps, domain.DefaultConstraints(), events)
	}()
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	return got, res, err
}

func TestDecideStreamAccepted(t *testing.T) {
	fragments := []string{"Let's think... because {a:1} matters. ", "Final: ", acceptedJSON[:40], acceptedJSON[40:]}
	stub := &stubReasoner{fragments: fragments}
	a := &Agent{Reasoner: stub}

	events, res, err := collect(t, a, glueXOpps())
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !res.OK() {
		t.Fatalf("reason=%s want accepted", res.Reason)
	}

	wantPrefix := []Event{
		{Type: EventStatus, Message: "Initializing AI agent..."},
		{Type: EventStatus, Message: "Analyzing yield opportunities..."},
		{Type: EventInfo, Message: "Found 1 GlueX vaults (priority allocation targets)"},
		{Type: EventStatus, Message: "Evaluating risk-adjusted returns..."},
		{Type: EventReasoning, Message: "AI Agent is analyzing..."},
	}
	if len(events) != len(wantPrefix)+len(fragments)+2 {
		t.Fatalf("events=%d want=%d: %+v", len(events), len(wantPrefix)+len(fragments)+2, events)
	}
	for i, want := range wantPrefix {
		if events[i].Type != want.Type || events[i].Message != want.Message {
			t.Fatalf("event[%d]=%+v want=%+v", i, events[i], want)
		}
	}
	for i, frag := range fragments {
		ev := events[len(wantPrefix)+i]
		if ev.Type != EventReasoning || ev.Message != frag {
			t.Fatalf("fragment[%d]=%+v want=%q", i, ev, frag)
		}
	}
	decision := events[len(events)-2]
	if decision.Type != EventDecision || decision.Decision == nil || decision.Decision.TargetVault != "0x1" {
		t.Fatalf("decision event=%+v", decision)
	}
	if last := events[len(events)-1]; last.Type != EventComplete || last.Message != "Optimization complete!" {
		t.Fatalf("last event=%+v", last)
	}
	if !strings.Contains(stub.requests[0].User, "exactly one JSON object") {
		t.Fatalf("stream request missing output instruction")
	}
	if stub.closedCount() != 1 {
		t.Fatalf("closed=%d want=1", stub.closedCount())
	}
}

func TestDecideStreamRejected(t *testing.T) {
	reply := strings.Replace(acceptedJSON, `"confidence":0.9`, `"confidence":0.4`, 1)
	events, res, err := collect(t, &Agent{Reasoner: &stubReasoner{fragments: []string{"thinking ", reply}}}, glueXOpps())
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if res.Reason != risk.ReasonConfidenceBelowMinimum {
		t.Fatalf("reason=%s", res.Reason)
	}
	last := events[len(events)-1]
	if last.Type != EventError || last.Message != "Failed to generate valid decision: confidence below minimum" {
		t.Fatalf("last event=%+v", last)
	}
	for _, ev := range events {
		if ev.Type == EventDecision || ev.Type == EventComplete {
			t.Fatalf("rejected stream emitted %s", ev.Type)
		}
	}
}

func TestDecideStreamNoJSON(t *testing.T) {
	events, res, err := collect(t, &Agent{Reasoner: &stubReasoner{fragments: []string{"I cannot decide."}}}, glueXOpps())
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if res.Reason != risk.ReasonMalformedOutput {
		t.Fatalf("reason=%s", res.Reason)
	}
	if last := events[len(events)-1]; last.Type != EventError {
		t.Fatalf("last event=%+v", last)
	}
}

func TestDecideStreamTransportError(t *testing.T) {
	stub := &stubReasoner{fragments: []string{"partial {"}, streamErr: errors.New("connection reset")}
	events, _, err := collect(t, &Agent{Reasoner: stub}, glueXOpps())
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("err=%v want ServiceError", err)
	}
	last := events[len(events)-1]
	if last.Type != EventError || !strings.Contains(last.Message, "connection reset") {
		t.Fatalf("last event=%+v", last)
	}
}

func TestDecideStreamCancelReleasesStream(t *testing.T) {
	stub := &stubReasoner{
		fragments: []string{"a", "b", "c", acceptedJSON},
		block:     make(chan struct{}),
	}
	a := &Agent{Reasoner: stub}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event)

	errCh := make(chan error, 1)
	go func() {
		_, err := a.DecideStream(ctx, state(), glueXOpps(), domain.DefaultConstraints(), events)
		errCh <- err
	}()

	// Drain the preamble, let one fragment through, then disconnect.
	for i := 0; i < 5; i++ {
		<-events
	}
	stub.block <- struct{}{}
	if ev := <-events; ev.Message != "a" {
		t.Fatalf("fragment=%+v want a", ev)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("DecideStream did not return after cancel")
	}
	if stub.closedCount() != 1 {
		t.Fatalf("closed=%d want=1", stub.closedCount())
	}
}

func TestDecideStreamPacingHonoursCancel(t *testing.T) {
	a := &Agent{Reasoner: &stubReasoner{}, Pacing: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 8)
	go func() {
		<-events // initializing
		cancel()
	}()
	_, err := a.DecideStream(ctx, state(), glueXOpps(), domain.DefaultConstraints(), events)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestPreambleDelaysAlternate(t *testing.T) {
	a := &Agent{Pacing: 300 * time.Millisecond}
	want := [4]time.Duration{300 * time.Millisecond, 400 * time.Millisecond, 300 * time.Millisecond, 400 * time.Millisecond}
	if got := a.preambleDelays(); got != want {
		t.Fatalf("delays=%v want=%v", got, want)
	}
	var none [4]time.Duration
	if got := (&Agent{}).preambleDelays(); got != none {
		t.Fatalf("zero pacing delays=%v", got)
	}
}
