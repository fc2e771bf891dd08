package assistant

import (
	"fmt"
	"strings"

	"github.com/prontocasa/assistant/internal/leads"
)

// Fixed user-facing replies. These bypass or wrap the model output and must
// stay stable across turns; the repetition filter knows some of them as
// boilerplate.
const (
	safetyEscalationBase = "Questa è una situazione di emergenza: chiama SUBITO il 112, il numero unico di emergenza. È gratuito e attivo 24 ore su 24."

	apologyReply = "Mi dispiace, in questo momento ho un problema tecnico e non riesco a risponderti come vorrei. " + ctaLine

	serviceUnavailableReply = "Il servizio di assistenza via chat non è al momento disponibile. " + ctaLine

	urgentCallBanner = "⚠️ Per un intervento immediato la cosa più rapida è chiamare ora il numero verde 800 188 488."

	callsFreeNotice = "La chiamata al numero verde 800 188 488 è completamente gratuita, da fisso e da mobile."

	photoNudge = "Se riesci, allega una foto del guasto: così posso darti subito una stima di prezzo più precisa."
)

// safetyAddendum is the category-specific second line of the escalation
// message.
func safetyAddendum(kind EmergencyType) string {
	switch kind {
	case EmergencyFire:
		return "Nel frattempo allontanati dai locali, non usare acqua su impianti elettrici e non prendere l'ascensore."
	case EmergencyGas:
		return "Nel frattempo apri le finestre, non accendere luci né fiamme e non usare interruttori elettrici, poi esci dall'abitazione."
	case EmergencyMedical:
		return "Resta accanto alla persona, seguila e riferisci agli operatori del 112 ciò che vedi."
	case EmergencyCrime:
		return "Mettiti al sicuro e non affrontare nessuno: attendi l'arrivo delle forze dell'ordine."
	default:
		return ""
	}
}

// SafetyReply builds the full escalation message for an emergency category.
func SafetyReply(kind EmergencyType) string {
	addendum := safetyAddendum(kind)
	if addendum == "" {
		return safetyEscalationBase
	}
	return safetyEscalationBase + " " + addendum
}

// GreetingReply is the fixed opening question returned for a short greeting
// without invoking the model. Hints already detected seed the question so the
// user is not asked for what they already said.
func GreetingReply(hints Hints) string {
	var b strings.Builder
	b.WriteString("Ciao! Sono l'assistente di ProntoCasa, il pronto intervento per la casa.")
	if hints.Service != "" {
		fmt.Fprintf(&b, " Ho capito che ti serve un %s.", serviceLabel(hints.Service))
	}
	switch {
	case hints.Service != "" && hints.Zone != "":
		fmt.Fprintf(&b, " Sei in zona %s, giusto? Raccontami in due parole il problema.", hints.Zone)
	case hints.Service != "":
		b.WriteString(" In che zona ti trovi e qual è esattamente il problema?")
	case hints.Zone != "":
		fmt.Fprintf(&b, " Vedo che sei in zona %s: qual è il problema?", hints.Zone)
	default:
		b.WriteString(" Dimmi che problema hai e in che zona ti trovi, e ti metto in contatto con il tecnico giusto.")
	}
	return b.String()
}

// priceRangeLine renders a tariff range as display text. NightAdd, when
// present, is shown as an additional amount rather than a separate range.
func priceRangeLine(service leads.Service, min, max float64, nightMin, nightMax float64, night bool) string {
	line := fmt.Sprintf("Per questo intervento (%s) in genere si va da %s a %s euro, da confermare con il tecnico sul posto.",
		serviceLabel(service), formatEuro(min), formatEuro(max))
	if night && nightMax > 0 {
		line += fmt.Sprintf(" In fascia notturna o festiva considera un supplemento indicativo di %s-%s euro.",
			formatEuro(nightMin), formatEuro(nightMax))
	}
	return line
}

// formatEuro renders an amount without trailing decimals when whole.
func formatEuro(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
