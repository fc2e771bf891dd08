package assistant

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/prontocasa/assistant/internal/geo"
	"github.com/prontocasa/assistant/internal/leads"
	"github.com/prontocasa/assistant/internal/observability/metrics"
	"github.com/prontocasa/assistant/internal/pricing"
	"github.com/prontocasa/assistant/pkg/logging"
)

var turnTracer = otel.Tracer("prontocasa.internal.assistant")

// maxHistoryTurns caps how much of the transcript travels to the model. The
// lead accumulates in the session store, so older turns carry no information
// the model still needs.
const maxHistoryTurns = 16

// defaultModelTimeout bounds a single completion call; the turn is never
// retried inside the orchestrator.
const defaultModelTimeout = 45 * time.Second

// Turn outcomes recorded in metrics.
const (
	outcomeSafety      = "safety"
	outcomeGreeting    = "greeting"
	outcomeReply       = "reply"
	outcomeModelError  = "model_error"
	outcomeUnavailable = "unavailable"
)

// Orchestrator runs the fixed per-turn pipeline: safety gate, greeting
// shortcut, then the full model round-trip with extraction, pricing
// augmentation and repetition filtering. It holds no per-conversation state;
// everything it needs arrives in the TurnRequest.
type Orchestrator struct {
	llm       LLMClient
	model     string
	gazetteer *geo.Matcher
	tariffs   pricing.Table
	resolver  *ImageResolver
	logger    *logging.Logger
	metrics   *metrics.TurnMetrics
	timeout   time.Duration
}

// OrchestratorOption configures the turn pipeline.
type OrchestratorOption func(*Orchestrator)

// WithModelTimeout overrides the per-call deadline on the model.
func WithModelTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewOrchestrator wires the turn pipeline. A nil llm or empty model name is
// tolerated and degrades every full-pipeline turn to the service-unavailable
// reply, matching how missing tariff config degrades pricing.
func NewOrchestrator(llm LLMClient, model string, gazetteer *geo.Matcher, tariffs pricing.Table, resolver *ImageResolver, logger *logging.Logger, m *metrics.TurnMetrics, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if gazetteer == nil {
		gazetteer = geo.NewMatcher(nil)
	}
	o := &Orchestrator{
		llm:       llm,
		model:     model,
		gazetteer: gazetteer,
		tariffs:   tariffs,
		resolver:  resolver,
		logger:    logger.WithComponent("orchestrator"),
		metrics:   m,
		timeout:   defaultModelTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn handles one conversation turn end to end. The returned error is
// reserved for caller mistakes (empty conversation ID); every runtime failure
// inside the pipeline degrades to a polite fixed reply with a nil lead
// instead of surfacing.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, leads.ErrMissingConversation
	}

	ctx, span := turnTracer.Start(ctx, "assistant.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("prontocasa.conversation_id", req.ConversationID),
		attribute.Int("prontocasa.images", len(req.Images)),
	)

	if kind := DetectEmergency(req.Message); kind != EmergencyNone {
		o.logger.Warn("safety gate fired", "conversation_id", req.ConversationID, "category", string(kind))
		span.SetAttributes(attribute.String("prontocasa.outcome", outcomeSafety))
		o.metrics.ObserveTurn(outcomeSafety)
		return o.respond(req, SafetyReply(kind), nil), nil
	}

	hints := DetectHints(req.Message, o.gazetteer)

	if IsGreeting(req.Message) {
		span.SetAttributes(attribute.String("prontocasa.outcome", outcomeGreeting))
		o.metrics.ObserveTurn(outcomeGreeting)
		return o.respond(req, GreetingReply(hints), req.SessionLead), nil
	}

	if o.llm == nil || o.model == "" {
		o.logger.Error("model not configured, degrading turn", "conversation_id", req.ConversationID)
		o.metrics.ObserveTurn(outcomeUnavailable)
		return o.respond(req, serviceUnavailableReply, nil), nil
	}

	raw, err := o.complete(ctx, req, hints)
	if err != nil {
		o.logger.Error("model call failed", "conversation_id", req.ConversationID, "error", err)
		span.RecordError(err)
		o.metrics.ObserveTurn(outcomeModelError)
		return o.respond(req, apologyReply, nil), nil
	}

	text, lead := o.finishTurn(req, hints, raw)
	span.SetAttributes(
		attribute.String("prontocasa.outcome", outcomeReply),
		attribute.Bool("prontocasa.lead_actionable", lead.Actionable()),
	)
	o.metrics.ObserveTurn(outcomeReply)
	o.metrics.ObserveLead(lead.Actionable())
	return o.respond(req, text, lead), nil
}

// complete performs the single model round-trip for a turn.
func (o *Orchestrator) complete(ctx context.Context, req TurnRequest, hints Hints) (string, error) {
	llmReq := o.buildLLMRequest(ctx, req, hints)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.llm.Complete(callCtx, llmReq)
	o.metrics.ObserveModelLatency(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// buildLLMRequest composes system prompt, trimmed history and the current
// user message (with any resolvable images inlined) for the model.
func (o *Orchestrator) buildLLMRequest(ctx context.Context, req TurnRequest, hints Hints) LLMRequest {
	system := BuildSystemPrompt(o.gazetteer.Areas(), hints)
	userContent := BuildUserContent(req.Message, hints, len(req.Images) > 0)

	var parts []ImagePart
	if o.resolver != nil && len(req.Images) > 0 {
		parts = o.resolver.Resolve(ctx, req.Images)
		for i := len(parts); i < len(req.Images); i++ {
			o.metrics.ObserveImageDropped()
		}
	}

	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, t := range history {
		role := ChatRoleUser
		if t.Role == RoleAssistant {
			role = ChatRoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userContent, Images: parts})

	return LLMRequest{
		Model:    o.model,
		System:   []string{system},
		Messages: messages,
	}
}

// finishTurn runs the post-model half of the pipeline on a raw completion:
// extraction, normalization, session merge, pricing augmentation, fixed
// notices and the repetition filter.
func (o *Orchestrator) finishTurn(req TurnRequest, hints Hints, raw string) (string, *leads.Lead) {
	text, lead := ExtractLead(raw)
	if lead == nil {
		o.logger.Debug("no lead block this turn", "conversation_id", req.ConversationID)
	}
	NormalizeLead(lead, hints, o.gazetteer, req.Images)

	if lead == nil {
		lead = req.SessionLead
	} else {
		lead.Merge(req.SessionLead)
	}

	text = o.augmentPricing(text, lead, req)

	if lead != nil && lead.Urgenza == leads.UrgencySubito && !strings.Contains(text, urgentCallBanner) {
		text = urgentCallBanner + "\n\n" + text
	}
	if AsksAboutCallCost(req.Message) {
		text = text + "\n\n" + callsFreeNotice
	}

	text = FilterRepetition(text, lastAssistantText(req.History))
	if strings.TrimSpace(text) == "" {
		// The filter may eat a reply that was nothing but repeats. Never
		// hand back an empty message.
		text = apologyReply
	}
	return text, lead
}

// augmentPricing appends tariff-derived price lines when the turn asked for
// them. A committed point price requires the exact fault type; otherwise an
// honest range is quoted. Missing tariff data simply produces no price line.
func (o *Orchestrator) augmentPricing(text string, lead *leads.Lead, req TurnRequest) string {
	// A question about what the phone call costs is not a repair-price ask;
	// it must not trigger the photo nudge.
	priceAsked := WantsPriceEstimate(req.Message) && !AsksAboutCallCost(req.Message)
	hasImage := len(req.Images) > 0

	if lead == nil || lead.Servizio == "" || (!priceAsked && !hasImage) {
		if priceAsked && !hasImage {
			return text + "\n\n" + photoNudge
		}
		return text
	}

	if quote, ok := pricing.PointPrice(lead, o.tariffs); ok {
		lead.Pricing = &leads.Pricing{Ready: true, Item: quote.Item, Price: quote.Price}
		if quote.Night {
			lead.Pricing.Note = "tariffa notturna/festiva applicata"
		}
		line := "Per " + quote.Item + " il prezzo indicativo è " + formatEuro(quote.Price) + " euro, da confermare con il tecnico sul posto."
		return text + "\n\n" + line
	}

	if r, ok := pricing.RangePrice(lead.Servizio, o.tariffs); ok {
		var nightMin, nightMax float64
		night := false
		if r.NightAdd != nil {
			night = true
			nightMin, nightMax = r.NightAdd.Min, r.NightAdd.Max
		}
		lead.Pricing = &leads.Pricing{Note: "fascia indicativa " + formatEuro(r.Min) + "-" + formatEuro(r.Max) + " euro"}
		text = text + "\n\n" + priceRangeLine(lead.Servizio, r.Min, r.Max, nightMin, nightMax, night)
	}

	if priceAsked && !hasImage {
		text = text + "\n\n" + photoNudge
	}
	return text
}

func (o *Orchestrator) respond(req TurnRequest, text string, lead *leads.Lead) *TurnResponse {
	return &TurnResponse{
		ConversationID: req.ConversationID,
		Text:           text,
		Lead:           lead,
		Timestamp:      time.Now().UTC(),
	}
}

// lastAssistantText returns the most recent assistant turn's content, or ""
// when the assistant has not spoken yet.
func lastAssistantText(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
