package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prontocasa/assistant/internal/leads"
)

func TestSafetyReplyAddenda(t *testing.T) {
	for _, kind := range []EmergencyType{EmergencyFire, EmergencyGas, EmergencyMedical, EmergencyCrime} {
		reply := SafetyReply(kind)
		assert.Contains(t, reply, "112", string(kind))
		assert.Greater(t, len(reply), len(safetyEscalationBase), "each category carries an addendum")
	}
}

func TestGreetingReplySeedsHints(t *testing.T) {
	plain := GreetingReply(Hints{})
	assert.Contains(t, plain, "ProntoCasa")
	assert.Contains(t, plain, "che zona")

	withService := GreetingReply(Hints{Service: leads.ServiceIdraulico})
	assert.Contains(t, withService, "intervento idraulico")

	withBoth := GreetingReply(Hints{Service: leads.ServiceFabbro, Zone: "Prati"})
	assert.Contains(t, withBoth, "Prati")
	assert.NotContains(t, withBoth, "In che zona ti trovi")
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "80", formatEuro(80))
	assert.Equal(t, "92.50", formatEuro(92.5))
}
