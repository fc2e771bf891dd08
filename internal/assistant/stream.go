package assistant

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/prontocasa/assistant/internal/leads"
)

// markerGate filters a streamed completion so the trailing data block never
// reaches the user. It forwards prose as it arrives but withholds any tail
// that could be the beginning of the marker; once the full marker is seen,
// forwarding stops for good.
type markerGate struct {
	marker  string
	pending string
	closed  bool
}

func newMarkerGate() *markerGate {
	return &markerGate{marker: leadBlockMarker}
}

// Feed accepts the next raw chunk and returns the text that is safe to show
// now. Returns "" once the marker has been crossed.
func (g *markerGate) Feed(chunk string) string {
	if g.closed {
		return ""
	}
	g.pending += chunk

	if idx := strings.Index(g.pending, g.marker); idx >= 0 {
		out := g.pending[:idx]
		g.pending = ""
		g.closed = true
		return out
	}

	hold := markerPrefixLen(g.pending, g.marker)
	out := g.pending[:len(g.pending)-hold]
	g.pending = g.pending[len(g.pending)-hold:]
	return out
}

// Flush releases any withheld tail after the stream ends without the marker
// ever completing.
func (g *markerGate) Flush() string {
	if g.closed {
		return ""
	}
	out := g.pending
	g.pending = ""
	return out
}

// markerPrefixLen returns the length of the longest suffix of s that is a
// proper prefix of marker. That suffix cannot be emitted yet: the next chunk
// may complete the marker.
func markerPrefixLen(s, marker string) int {
	max := len(marker) - 1
	if len(s) < max {
		max = len(s)
	}
	for l := max; l > 0; l-- {
		if strings.HasPrefix(marker, s[len(s)-l:]) {
			return l
		}
	}
	return 0
}

// ProcessTurnStream is the streaming variant of ProcessTurn. Prose chunks are
// delivered through onChunk as the model produces them, with the trailing
// data block gated out; the returned TurnResponse carries the authoritative
// post-processed text and the extracted lead, which the caller sends as the
// final payload. A stream that breaks mid-reply is not retried; whatever
// arrived is processed as the completion.
func (o *Orchestrator) ProcessTurnStream(ctx context.Context, req TurnRequest, onChunk func(text string)) (*TurnResponse, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, leads.ErrMissingConversation
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}

	ctx, span := turnTracer.Start(ctx, "assistant.turn_stream")
	defer span.End()
	span.SetAttributes(attribute.String("prontocasa.conversation_id", req.ConversationID))

	if kind := DetectEmergency(req.Message); kind != EmergencyNone {
		o.metrics.ObserveTurn(outcomeSafety)
		resp := o.respond(req, SafetyReply(kind), nil)
		onChunk(resp.Text)
		return resp, nil
	}

	hints := DetectHints(req.Message, o.gazetteer)

	if IsGreeting(req.Message) {
		o.metrics.ObserveTurn(outcomeGreeting)
		resp := o.respond(req, GreetingReply(hints), req.SessionLead)
		onChunk(resp.Text)
		return resp, nil
	}

	if o.llm == nil || o.model == "" {
		o.metrics.ObserveTurn(outcomeUnavailable)
		resp := o.respond(req, serviceUnavailableReply, nil)
		onChunk(resp.Text)
		return resp, nil
	}

	streamer, ok := o.llm.(StreamingLLMClient)
	if !ok {
		// The configured client cannot stream; fall back to one shot and
		// deliver the whole reply as a single chunk.
		resp, err := o.ProcessTurn(ctx, req)
		if err != nil {
			return nil, err
		}
		onChunk(resp.Text)
		return resp, nil
	}

	raw, emitted, err := o.streamCompletion(ctx, req, hints, streamer, onChunk)
	if err != nil && raw == "" {
		o.logger.Error("model stream failed", "conversation_id", req.ConversationID, "error", err)
		span.RecordError(err)
		o.metrics.ObserveTurn(outcomeModelError)
		resp := o.respond(req, apologyReply, nil)
		if !emitted {
			onChunk(resp.Text)
		}
		return resp, nil
	}
	if err != nil {
		// Partial reply: keep what arrived, do not retry.
		o.logger.Warn("model stream broke mid-reply", "conversation_id", req.ConversationID, "error", err)
		span.RecordError(err)
	}

	text, lead := o.finishTurn(req, hints, raw)
	o.metrics.ObserveTurn(outcomeReply)
	o.metrics.ObserveLead(lead.Actionable())
	span.SetAttributes(attribute.Bool("prontocasa.lead_actionable", lead.Actionable()))
	return o.respond(req, text, lead), nil
}

// streamCompletion drains the model stream, forwarding gated prose through
// onChunk while accumulating the raw completion for extraction. Returns the
// raw text, whether anything was forwarded, and the first stream error.
func (o *Orchestrator) streamCompletion(ctx context.Context, req TurnRequest, hints Hints, streamer StreamingLLMClient, onChunk func(string)) (string, bool, error) {
	llmReq := o.buildLLMRequest(ctx, req, hints)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	ch, err := streamer.CompleteStream(callCtx, llmReq)
	if err != nil {
		o.metrics.ObserveModelLatency(time.Since(start).Seconds())
		return "", false, err
	}

	gate := newMarkerGate()
	var raw strings.Builder
	emitted := false
	var streamErr error

	for chunk := range ch {
		if chunk.Err != nil {
			streamErr = chunk.Err
			break
		}
		raw.WriteString(chunk.Text)
		if out := gate.Feed(chunk.Text); out != "" {
			onChunk(out)
			emitted = true
		}
	}
	if out := gate.Flush(); out != "" {
		onChunk(out)
		emitted = true
	}
	o.metrics.ObserveModelLatency(time.Since(start).Seconds())

	return raw.String(), emitted, streamErr
}
