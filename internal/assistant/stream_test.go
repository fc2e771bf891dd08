package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prontocasa/assistant/internal/leads"
)

type stubStreamLLM struct {
	stubLLM
	chunks []StreamChunk
}

func (s *stubStreamLLM) CompleteStream(_ context.Context, req LLMRequest) (<-chan StreamChunk, error) {
	s.lastReq = req
	ch := make(chan StreamChunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestMarkerGateSplitAcrossChunks(t *testing.T) {
	gate := newMarkerGate()

	var shown strings.Builder
	shown.WriteString(gate.Feed("Ecco il riepilogo. DATI_"))
	shown.WriteString(gate.Feed("LEAD: {\"servizio\": \"fabbro\"}"))
	shown.WriteString(gate.Flush())

	assert.Equal(t, "Ecco il riepilogo. ", shown.String())
}

func TestMarkerGateNoMarkerFlushesEverything(t *testing.T) {
	gate := newMarkerGate()

	var shown strings.Builder
	shown.WriteString(gate.Feed("Nessun blocco "))
	shown.WriteString(gate.Feed("in questa risposta."))
	shown.WriteString(gate.Flush())

	assert.Equal(t, "Nessun blocco in questa risposta.", shown.String())
}

func TestMarkerGateFalseStart(t *testing.T) {
	gate := newMarkerGate()

	var shown strings.Builder
	shown.WriteString(gate.Feed("I DATI_"))
	shown.WriteString(gate.Feed("ANAGRAFICI non servono."))
	shown.WriteString(gate.Flush())

	assert.Equal(t, "I DATI_ANAGRAFICI non servono.", shown.String())
}

func TestMarkerGateStopsAfterMarker(t *testing.T) {
	gate := newMarkerGate()

	out := gate.Feed("Fatto. " + leadBlockMarker + " {\"servizio\"")
	assert.Equal(t, "Fatto. ", out)
	assert.Empty(t, gate.Feed(": \"idraulico\"}"))
	assert.Empty(t, gate.Flush())
}

func TestProcessTurnStreamForwardsProseAndExtractsLead(t *testing.T) {
	llm := &stubStreamLLM{chunks: []StreamChunk{
		{Text: "Capito, ti mando "},
		{Text: "un fabbro a Prati.\n" + leadBlockMarker},
		{Text: ` {"servizio": "fabbro", "zona": "Prati", "problema": "porta bloccata"}`},
	}}
	o := newTestOrchestrator(llm)

	var streamed strings.Builder
	resp, err := o.ProcessTurnStream(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Sono rimasto chiuso fuori casa a Prati",
	}, func(text string) { streamed.WriteString(text) })
	require.NoError(t, err)

	assert.Equal(t, "Capito, ti mando un fabbro a Prati.\n", streamed.String())
	require.NotNil(t, resp.Lead)
	assert.Equal(t, leads.ServiceFabbro, resp.Lead.Servizio)
	assert.NotContains(t, resp.Text, leadBlockMarker)
}

func TestProcessTurnStreamSafetyGate(t *testing.T) {
	llm := &stubStreamLLM{}
	o := newTestOrchestrator(llm)

	var streamed strings.Builder
	resp, err := o.ProcessTurnStream(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "C'è un incendio in cucina!",
	}, func(text string) { streamed.WriteString(text) })
	require.NoError(t, err)

	assert.Contains(t, streamed.String(), "112")
	assert.Equal(t, resp.Text, streamed.String())
	assert.Nil(t, resp.Lead)
}

func TestProcessTurnStreamNonStreamingFallback(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Risposta in un colpo solo."}}
	o := newTestOrchestrator(llm)

	var streamed strings.Builder
	resp, err := o.ProcessTurnStream(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Il lavandino perde",
	}, func(text string) { streamed.WriteString(text) })
	require.NoError(t, err)

	assert.Equal(t, resp.Text, streamed.String())
	assert.Equal(t, 1, llm.calls)
}

func TestProcessTurnStreamErrorBeforeOutputDegrades(t *testing.T) {
	llm := &stubStreamLLM{chunks: []StreamChunk{
		{Err: context.DeadlineExceeded},
	}}
	o := newTestOrchestrator(llm)

	var streamed strings.Builder
	resp, err := o.ProcessTurnStream(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Il lavandino perde",
	}, func(text string) { streamed.WriteString(text) })
	require.NoError(t, err)

	assert.Equal(t, apologyReply, resp.Text)
	assert.Equal(t, apologyReply, streamed.String())
	assert.Nil(t, resp.Lead)
}
