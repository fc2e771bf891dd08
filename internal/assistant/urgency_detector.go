package assistant

import (
	"regexp"
	"strings"

	"github.com/prontocasa/assistant/internal/leads"
)

var (
	urgencyImmediateRE  = regexp.MustCompile(`(?i)\b(subito|ora|adesso|immediat\w*|urgentissim\w*|emergenza|il prima possibile)\b`)
	urgencyTodayRE      = regexp.MustCompile(`(?i)\b(oggi|in giornata|entro (stasera|sera|oggi)|al più presto|al piu presto|appena possibile)\b`)
	urgencyNotUrgentRE  = regexp.MustCompile(`(?i)\b(non (è |e )?urgente|con calma|senza fretta|nei prossimi giorni|quando potete|prossima settimana|un preventivo)\b`)
)

// DetectUrgency classifies the immediacy of the message. Immediate markers
// win over same-day markers; explicit no-rush language wins over silence.
// Returns "" when the message carries no urgency signal.
func DetectUrgency(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	switch {
	case urgencyImmediateRE.MatchString(message):
		return leads.UrgencySubito
	case urgencyTodayRE.MatchString(message):
		return leads.UrgencyOggi
	case urgencyNotUrgentRE.MatchString(message):
		return leads.UrgencyNonUrgente
	default:
		return ""
	}
}
