package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterRepetitionDropsDuplicateLine(t *testing.T) {
	prev := "Dalla foto sembra una serratura a cilindro europeo.\nMi confermi la zona?"
	candidate := "Dalla foto sembra una serratura a cilindro europeo.\nPosso mandarti un fabbro entro un'ora."

	got := FilterRepetition(candidate, prev)
	assert.Equal(t, "Posso mandarti un fabbro entro un'ora.", got)
}

func TestFilterRepetitionMatchesOnWindow(t *testing.T) {
	prev := "Il prezzo indicativo per l'apertura porta con cilindro europeo è tra 80 e 120 euro."
	// Same first 40 normalized chars, different ending.
	candidate := "Il prezzo indicativo per l'apertura porta parte da 80 euro.\nServe altro?"

	got := FilterRepetition(candidate, prev)
	assert.Equal(t, "Serve altro?", got)
}

func TestFilterRepetitionKeepsShortLines(t *testing.T) {
	prev := "Va bene! Ti aspetto in zona Prati."
	candidate := "Va bene!\nTi mando il tecnico."

	// "va bene!" is below the floor; it survives even though it appears in prev.
	got := FilterRepetition(candidate, prev)
	assert.Equal(t, "Va bene!\nTi mando il tecnico.", got)
}

func TestFilterRepetitionCollapsesBoilerplate(t *testing.T) {
	candidate := strings.Join([]string{
		"Ti riassumo la richiesta.",
		ctaLine,
		"Un'ultima cosa.",
		ctaLine,
	}, "\n")

	got := FilterRepetition(candidate, "")
	assert.Equal(t, 1, strings.Count(got, "numero verde"))
	assert.Contains(t, got, "Ti riassumo la richiesta.")
	assert.Contains(t, got, "Un'ultima cosa.")
}

func TestFilterRepetitionPreservesOrderAndUnrelatedLines(t *testing.T) {
	prev := "Qualcosa di completamente diverso."
	candidate := "Prima riga nuova.\nSeconda riga nuova.\nTerza riga nuova."

	assert.Equal(t, candidate, FilterRepetition(candidate, prev))
	assert.Equal(t, "", FilterRepetition("", prev))
}
