package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prontocasa/assistant/internal/leads"
)

func TestWantsPriceEstimate(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"Quanto costa aprire la porta?", true},
		{"Mi fai un preventivo?", true},
		{"Mi sapete dire il costo?", true},
		{"Quanto viene l'uscita?", true},
		{"Che tariffa avete per il notturno?", true},
		{"La porta non si apre", false},
		{"Arrivate in mezz'ora?", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WantsPriceEstimate(tc.message), tc.message)
	}
}

func TestAsksAboutCallCost(t *testing.T) {
	assert.True(t, AsksAboutCallCost("La chiamata al numero verde costa qualcosa?"))
	assert.True(t, AsksAboutCallCost("quanto costa chiamare?"))
	assert.False(t, AsksAboutCallCost("Quanto costa l'intervento?"))
}

func TestBuildUserContentOmitsGuidanceByDefault(t *testing.T) {
	msg := "La porta non si chiude bene"
	assert.Equal(t, msg, BuildUserContent(msg, Hints{Service: leads.ServiceFabbro}, false))
}

func TestBuildUserContentAppendsGuidanceForImage(t *testing.T) {
	out := BuildUserContent("Ecco la foto", Hints{Service: leads.ServiceFabbro}, true)
	assert.Contains(t, out, "[istruzioni per la foto]")
	assert.Contains(t, out, "cilindro europeo, doppia mappa, serratura elettrica, basculante")
	assert.Contains(t, out, "Dalla foto sembra")
}

func TestBuildUserContentAppendsGuidanceForPriceAsk(t *testing.T) {
	out := BuildUserContent("Quanto costa riparare la perdita?", Hints{Service: leads.ServiceIdraulico}, false)
	assert.Contains(t, out, "tipo_perdita")
}
