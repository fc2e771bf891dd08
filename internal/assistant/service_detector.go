package assistant

import (
	"regexp"
	"strings"

	"github.com/prontocasa/assistant/internal/leads"
)

// servicePatterns maps keyword patterns onto service categories. The slice
// order is the detection priority and is fixed: specific trades come before
// the generic water/door/power vocabularies that could shadow them (a
// clogged drain mentions water but belongs to spurgo, a stuck shutter
// mentions a door but belongs to fabbro). First match wins.
var servicePatterns = []struct {
	service leads.Service
	re      *regexp.Regexp
}{
	{leads.ServiceSoccorsoStradale, regexp.MustCompile(`(?i)\b(soccorso stradale|carro attrezzi|auto in panne|macchina in panne|batteria (scarica|a terra)|gomma (a terra|bucata)|rimorchio auto)\b`)},
	{leads.ServiceSpurgo, regexp.MustCompile(`(?i)\b(spurgo|autospurgo|fogna\w*|pozzo nero|pozzetto|disotturaz\w*|scarico (intasato|otturato|bloccato)|wc (intasato|otturato)|water (intasato|otturato))\b`)},
	{leads.ServiceCaldaia, regexp.MustCompile(`(?i)\b(caldaia|scaldabagno|boiler|termosifon\w*|riscaldamento|senza acqua calda|acqua calda)\b`)},
	{leads.ServiceDisinfestazione, regexp.MustCompile(`(?i)\b(disinfestaz\w*|derattizzaz\w*|blatte|scarafagg\w*|formiche|cimici|vespe|calabron\w*|topi|ratti|zanzare)\b`)},
	{leads.ServiceVetraio, regexp.MustCompile(`(?i)\b(vetraio|vetrina|vetrata|doppi vetri|vetro (rotto|spaccato|in frantumi)|specchio rotto)\b`)},
	{leads.ServiceFabbro, regexp.MustCompile(`(?i)\b(fabbro|serratur\w*|cilindro|porta blindata|basculante|serrand\w*|apertura porta|chiav[ei] (spezzata|rotta|perse?|dentro)|rimast[oa] fuori|chius[oa] fuori)\b`)},
	{leads.ServiceElettricista, regexp.MustCompile(`(?i)\b(elettricista|corto ?circuito|blackout|contatore|quadro elettrico|impianto elettrico|salvavita|interruttore|presa elettrica|salta (la )?corrente|senza (luce|corrente))\b`)},
	{leads.ServiceIdraulico, regexp.MustCompile(`(?i)\b(idraulico|perdita|perde acqua|allagat\w*|allagamento|rubinetto|sifone|lavandino|sanitari|tubo (rotto|scoppiato|che perde)|infiltrazion\w*)\b`)},
}

// DetectService classifies the message into a service category, or "" when
// nothing matches.
func DetectService(message string) leads.Service {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	for _, p := range servicePatterns {
		if p.re.MatchString(message) {
			return p.service
		}
	}
	return ""
}
