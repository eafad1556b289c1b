package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"superyield/internal/domain"
	"superyield/internal/prompt"
	"superyield/internal/reasoner"
	"superyield/internal/risk"
)

type EventType string

const (
	EventStatus    EventType = "status"
	EventInfo      EventType = "info"
	EventReasoning EventType = "reasoning"
	EventDecision  EventType = "decision"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
)

// Event is one message of the client-visible stream protocol.
type Event struct {
	Type     EventType                  `json:"type"`
	Message  string                     `json:"message,omitempty"`
	Decision *domain.AllocationDecision `json:"decision,omitempty"`
}

const (
	msgInitializing = "Initializing AI agent..."
	msgAnalyzing    = "Analyzing yield opportunities..."
	msgEvaluating   = "Evaluating risk-adjusted returns..."
	msgReasoning    = "AI Agent is analyzing..."
	msgComplete     = "Optimization complete!"
	msgInvalid      = "Failed to generate valid decision"
)

// DecideStream runs one streamed decision and writes its events to events.
//
// Events are sent from the calling goroutine only, so they arrive in emission
// order: reasoning fragments in arrival order, then either decision+complete
// or a single error. A send blocks until the consumer reads or ctx is done;
// nothing is dropped. On cancellation the upstream stream is closed and
// ctx.Err() is returned without emitting a decision. The caller owns events
// and closes it after DecideStream returns. A nil events channel discards.
func (a *Agent) DecideStream(ctx context.Context, state domain.VaultState, opps []domain.YieldOpportunity, c domain.OptimizationConstraints, events chan<- Event) (Result, error) {
	if !a.Configured() {
		return Result{}, ErrNoReasoner
	}

	if err := emit(ctx, events, Event{Type: EventStatus, Message: msgInitializing}); err != nil {
		return Result{}, err
	}
	req := reasoner.Request{
		System:      prompt.BuildContext(c),
		User:        prompt.BuildSituation(state, opps) + "\n" + prompt.StreamInstruction(),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	}

	priority, _ := domain.PartitionPriority(opps)
	preamble := []Event{
		{Type: EventStatus, Message: msgAnalyzing},
		{Type: EventInfo, Message: fmt.Sprintf("Found %d GlueX vaults (priority allocation targets)", len(priority))},
		{Type: EventStatus, Message: msgEvaluating},
		{Type: EventReasoning, Message: msgReasoning},
	}
	delays := a.preambleDelays()
	for i, ev := range preamble {
		if err := pause(ctx, delays[i]); err != nil {
			return Result{}, err
		}
		if err := emit(ctx, events, ev); err != nil {
			return Result{}, err
		}
	}

	callCtx, cancel := a.withTimeout(ctx)
	defer cancel()
	stream, err := a.Reasoner.Stream(callCtx, req)
	if err != nil {
		return a.streamFailed(ctx, events, err)
	}
	defer stream.Close()

	var buf strings.Builder
	fragments := 0
	for stream.Next() {
		frag := stream.Text()
		buf.WriteString(frag)
		fragments++
		if err := emit(ctx, events, Event{Type: EventReasoning, Message: frag}); err != nil {
			a.logDebug("agent: stream consumer gone", zap.Int("fragments", fragments))
			return Result{}, err
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return a.streamFailed(ctx, events, err)
	}
	_ = stream.Close()

	full := buf.String()
	a.logDebug("agent: stream closed", zap.Int("fragments", fragments), zap.Int("bytes", len(full)))

	extracted, ok := ExtractJSON(full)
	if !ok {
		a.logInfo("agent: no decision object in stream")
		res := Result{Reason: risk.ReasonMalformedOutput, Raw: full}
		return res, emit(ctx, events, Event{Type: EventError, Message: msgInvalid + ": " + res.Reason.Message()})
	}
	res := a.reconcile(extracted, full, opps, c)
	if !res.OK() {
		return res, emit(ctx, events, Event{Type: EventError, Message: msgInvalid + ": " + res.Reason.Message()})
	}
	if err := emit(ctx, events, Event{Type: EventDecision, Decision: res.Decision}); err != nil {
		return Result{}, err
	}
	return res, emit(ctx, events, Event{Type: EventComplete, Message: msgComplete})
}

func (a *Agent) streamFailed(ctx context.Context, events chan<- Event, err error) (Result, error) {
	a.logError("agent: stream failed", err)
	serr := &ServiceError{Op: "stream", Err: err}
	_ = emit(ctx, events, Event{Type: EventError, Message: serr.Error()})
	return Result{}, serr
}

// preambleDelays returns the pause before each preamble event. Pauses
// alternate between Pacing and a third longer, so the default 300ms gives
// 300/400/300/400ms.
func (a *Agent) preambleDelays() [4]time.Duration {
	short := a.Pacing
	if short < 0 {
		short = 0
	}
	long := short + short/3
	return [4]time.Duration{short, long, short, long}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func emit(ctx context.Context, events chan<- Event, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		return nil
	}
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
