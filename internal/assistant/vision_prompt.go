package assistant

import (
	"regexp"
	"strings"

	"github.com/prontocasa/assistant/internal/leads"
)

var (
	priceAskRE = regexp.MustCompile(`(?i)\b(prezzo|costo|costi|tariffa|preventivo|stima|quanto (costa|viene|verrebbe|mi costa|vi devo|spendo|pago))\b`)
	callCostRE = regexp.MustCompile(`(?i)(chiamata|telefonata|numero verde)\b.{0,40}\b(costa|costo|a pagamento|gratuit\w*)|\bquanto costa (chiamare|la chiamata|il numero)\b`)
)

// WantsPriceEstimate reports whether the user is asking for a price or
// estimate this turn.
func WantsPriceEstimate(message string) bool {
	return priceAskRE.MatchString(message)
}

// AsksAboutCallCost reports whether the user is asking what the phone call
// itself costs.
func AsksAboutCallCost(message string) bool {
	return callCostRE.MatchString(message)
}

// lockCategories are the four hardware classes the model must choose from
// when reading a photo for a fabbro request. The tariff table is keyed on
// these same names.
var lockCategories = []string{"cilindro europeo", "doppia mappa", "serratura elettrica", "basculante"}

// visionGuidance returns the service-specific instructions for reading an
// attached photo. Appended to the user message, never to the system prompt,
// and only when a price was asked or an image is attached.
func visionGuidance(service leads.Service) string {
	switch service {
	case leads.ServiceFabbro:
		return "Osserva la foto della serratura e classificala in UNA di queste categorie: " +
			strings.Join(lockCategories, ", ") +
			". Riporta la categoria scelta nel campo extra.tipo_serratura. Se dalla foto vedi una chiave spezzata nel cilindro, imposta extra.chiave_spezzata a true. Apri la risposta con \"Dalla foto sembra\"."
	case leads.ServiceIdraulico:
		return "Osserva la foto e indica il tipo di perdita (rubinetto, sifone, tubo, scarico) nel campo extra.tipo_perdita. Se si vede acqua accumulata, segnalalo nelle note. Apri la risposta con \"Dalla foto sembra\"."
	case leads.ServiceVetraio:
		return "Osserva la foto e indica se il vetro è singolo o doppio e se la rottura richiede messa in sicurezza immediata. Apri la risposta con \"Dalla foto sembra\"."
	default:
		return "Osserva la foto allegata e descrivi nel campo problema ciò che è rilevante per l'intervento. Apri la risposta con \"Dalla foto sembra\"."
	}
}

// BuildUserContent composes the user-visible message content for the model.
// Vision guidance is appended only when this turn asked for a price/estimate
// or attached an image; otherwise the message passes through untouched,
// which keeps latency down and avoids over-triggering image analysis.
func BuildUserContent(message string, hints Hints, hasImage bool) string {
	if !hasImage && !WantsPriceEstimate(message) {
		return message
	}
	return message + "\n\n[istruzioni per la foto] " + visionGuidance(hints.Service)
}
