package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prontocasa/assistant/internal/geo"
	"github.com/prontocasa/assistant/internal/leads"
	"github.com/prontocasa/assistant/internal/pricing"
)

type stubLLM struct {
	resp    LLMResponse
	err     error
	calls   int
	lastReq LLMRequest
}

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return s.resp, nil
}

func testGazetteer() *geo.Matcher {
	return geo.NewMatcher([]string{"Prati", "Centocelle", "San Giovanni"})
}

func testTariffs() pricing.Table {
	return pricing.Table{
		leads.ServiceFabbro: {
			Items: map[string]float64{"cilindro_europeo": 100, "doppia_mappa": 180},
			Extra: pricing.TariffExtra{ChiaveSpezzata: 20, NotturnoFestivo: 1.3},
		},
	}
}

func newTestOrchestrator(llm LLMClient) *Orchestrator {
	return NewOrchestrator(llm, "gemini-2.0-flash", testGazetteer(), testTariffs(), nil, nil, nil)
}

func TestProcessTurnRequiresConversationID(t *testing.T) {
	o := newTestOrchestrator(&stubLLM{})
	_, err := o.ProcessTurn(context.Background(), TurnRequest{Message: "ciao"})
	require.ErrorIs(t, err, leads.ErrMissingConversation)
}

func TestProcessTurnSafetyGatePrecedence(t *testing.T) {
	llm := &stubLLM{}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Sento una forte puzza di gas in cucina, cosa faccio?",
		History: []Turn{
			{Role: RoleUser, Content: "Mi serve un idraulico a Prati"},
			{Role: RoleAssistant, Content: "Certo, qual è il problema?"},
		},
		SessionLead: &leads.Lead{Servizio: leads.ServiceIdraulico, Zona: "Prati"},
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "112")
	assert.Contains(t, resp.Text, "finestre")
	assert.Nil(t, resp.Lead)
	assert.Zero(t, llm.calls, "safety gate must not invoke the model")
}

func TestProcessTurnGreetingShortcut(t *testing.T) {
	llm := &stubLLM{}
	o := newTestOrchestrator(llm)

	req := TurnRequest{ConversationID: "conv-1", Message: "Ciao!"}
	first, err := o.ProcessTurn(context.Background(), req)
	require.NoError(t, err)
	second, err := o.ProcessTurn(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, "ProntoCasa")
	assert.Zero(t, llm.calls, "greeting shortcut must not invoke the model")
}

func TestProcessTurnServiceUnavailable(t *testing.T) {
	o := NewOrchestrator(nil, "", testGazetteer(), nil, nil, nil, nil)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Ho il lavandino otturato",
	})
	require.NoError(t, err)
	assert.Equal(t, serviceUnavailableReply, resp.Text)
	assert.Nil(t, resp.Lead)
}

func TestProcessTurnModelFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(&stubLLM{err: errors.New("upstream timeout")})

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Ho il lavandino otturato",
	})
	require.NoError(t, err)
	assert.Equal(t, apologyReply, resp.Text)
	assert.Nil(t, resp.Lead)
}

func TestProcessTurnFullPipeline(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{
		Text: "Capito, porta bloccata. Ti faccio richiamare da un fabbro.\n" +
			leadBlockMarker + ` {"servizio": "fabbro", "zona": "prati", "problema": "porta bloccata"}`,
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Sono rimasto chiuso fuori casa a prati",
	})
	require.NoError(t, err)

	assert.NotContains(t, resp.Text, leadBlockMarker)
	require.NotNil(t, resp.Lead)
	assert.Equal(t, leads.ServiceFabbro, resp.Lead.Servizio)
	assert.Equal(t, "Prati", resp.Lead.Zona, "zona is canonicalized through the gazetteer")
	assert.True(t, resp.Lead.Actionable())

	require.Len(t, llm.lastReq.System, 1)
	assert.Contains(t, llm.lastReq.System[0], "Prati, Centocelle, San Giovanni")
}

func TestProcessTurnTrimsHistory(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "ok"}}
	o := newTestOrchestrator(llm)

	history := make([]Turn, 0, 30)
	for i := 0; i < 30; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Turn{Role: role, Content: "turno"})
	}

	_, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Il lavandino perde ancora",
		History:        history,
	})
	require.NoError(t, err)
	assert.Len(t, llm.lastReq.Messages, maxHistoryTurns+1)
}

func TestProcessTurnPointPriceAugmentation(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{
		Text: "Dalla foto sembra una serratura a cilindro europeo.\n" +
			leadBlockMarker + ` {"servizio": "fabbro", "zona": "Prati", "problema": "serratura bloccata", "extra": {"tipo_serratura": "cilindro europeo"}}`,
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Quanto costa aprire questa serratura?",
		Images:         []string{"https://cdn.example/lock.jpg"},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Lead)
	require.NotNil(t, resp.Lead.Pricing)
	assert.True(t, resp.Lead.Pricing.Ready)
	assert.Equal(t, float64(100), resp.Lead.Pricing.Price)
	assert.Contains(t, resp.Text, "100 euro")
	assert.NotContains(t, resp.Text, photoNudge)
}

func TestProcessTurnRangePriceAndPhotoNudge(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{
		Text: "Per dirti un prezzo preciso mi serve vedere la serratura.\n" +
			leadBlockMarker + ` {"servizio": "fabbro", "zona": "Prati", "problema": "chiave non gira"}`,
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Quanto mi costa più o meno?",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Lead)
	require.NotNil(t, resp.Lead.Pricing)
	assert.False(t, resp.Lead.Pricing.Ready)
	assert.Contains(t, resp.Text, "da 100 a 180 euro")
	assert.Contains(t, resp.Text, photoNudge)
}

func TestProcessTurnUrgentBanner(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{
		Text: "Ti mando subito un idraulico.\n" +
			leadBlockMarker + ` {"servizio": "idraulico", "zona": "Prati", "urgenza": "subito", "problema": "tubo rotto"}`,
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Si è rotto un tubo, c'è acqua ovunque, venite subito",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Text, urgentCallBanner))
}

func TestProcessTurnCallCostNotice(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Certo, ti spiego tutto."}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Ma la chiamata al numero verde quanto costa?",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, callsFreeNotice)
	assert.NotContains(t, resp.Text, photoNudge)
}

func TestProcessTurnMergesSessionLead(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{
		Text: "Perfetto, annotato.\n" + leadBlockMarker + ` {"problema": "caldaia in blocco, errore E10"}`,
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Sul display c'è scritto E10",
		SessionLead:    &leads.Lead{Servizio: leads.ServiceCaldaia, Zona: "Centocelle"},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Lead)
	assert.Equal(t, leads.ServiceCaldaia, resp.Lead.Servizio)
	assert.Equal(t, "Centocelle", resp.Lead.Zona)
	assert.Equal(t, "caldaia in blocco, errore E10", resp.Lead.Problema)
	assert.True(t, resp.Lead.Actionable())
}

func TestProcessTurnRepetitionFiltered(t *testing.T) {
	repeated := "Dalla foto sembra una serratura a cilindro europeo."
	llm := &stubLLM{resp: LLMResponse{
		Text: repeated + "\nPosso prenotarti il fabbro per stasera.",
	}}
	o := newTestOrchestrator(llm)

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Va bene per me",
		History: []Turn{
			{Role: RoleUser, Content: "Ecco la foto"},
			{Role: RoleAssistant, Content: repeated + "\nVuoi che ti mandi un fabbro?"},
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, resp.Text, repeated)
	assert.Contains(t, resp.Text, "Posso prenotarti il fabbro per stasera.")
}
