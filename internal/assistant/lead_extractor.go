package assistant

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/prontocasa/assistant/internal/geo"
	"github.com/prontocasa/assistant/internal/leads"
)

var (
	// fenceLineRE matches lines that are only code-fence markers; the model
	// sometimes wraps the data block in one despite instructions.
	fenceLineRE = regexp.MustCompile("^\\s*`{3,}[a-zA-Z]*\\s*$")

	// metaLineRE matches leaked meta-commentary about confidence/certainty.
	metaLineRE = regexp.MustCompile(`(?i)\b(confidenza|certezza|probabilit[àa]|confidence|certainty)\b`)

	// bareProbabilityRE matches lines that are a lone decimal-probability
	// token, with or without parentheses.
	bareProbabilityRE = regexp.MustCompile(`^\s*\(?\d?[.,]\d+\)?\s*$`)
)

// ExtractLead splits a raw model completion into the user-visible text and
// the Lead parsed from the trailing marker block. The block is located at
// the LAST occurrence of the marker; everything after it is parsed as JSON.
// A malformed block never fails the turn: it is stripped from the text and
// the lead degrades to nil. This is the single place that knows the marker
// format.
func ExtractLead(raw string) (string, *leads.Lead) {
	display := raw
	var lead *leads.Lead

	if idx := strings.LastIndex(raw, leadBlockMarker); idx >= 0 {
		display = raw[:idx]
		lead = parseLeadBlock(raw[idx+len(leadBlockMarker):])
	}

	return scrubDisplayText(display), lead
}

// parseLeadBlock parses the JSON object that follows the marker. Returns nil
// on any syntax problem.
func parseLeadBlock(blob string) *leads.Lead {
	blob = strings.Trim(strings.TrimSpace(blob), "`")
	start := strings.Index(blob, "{")
	if start < 0 {
		return nil
	}
	end := strings.LastIndex(blob, "}")
	if end < start {
		return nil
	}

	var lead leads.Lead
	if err := json.Unmarshal([]byte(blob[start:end+1]), &lead); err != nil {
		return nil
	}
	return &lead
}

// scrubDisplayText removes extraction artifacts from the text shown to the
// user: stray code fences, confidence meta-commentary and bare probability
// tokens. These must never reach the end user even when the model leaks them.
func scrubDisplayText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if fenceLineRE.MatchString(line) {
			continue
		}
		if metaLineRE.MatchString(line) {
			continue
		}
		if bareProbabilityRE.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// NormalizeLead reconciles an extracted lead with this turn's heuristics:
// zona is canonicalized through the gazetteer, empty slots are backfilled
// from hints, and the first attached image lands in extra.foto_url unless
// the model already set one.
func NormalizeLead(lead *leads.Lead, hints Hints, gazetteer *geo.Matcher, images []string) {
	if lead == nil {
		return
	}

	if lead.Zona != "" && gazetteer != nil {
		lead.Zona = gazetteer.Match(lead.Zona)
	}
	if lead.Servizio == "" {
		lead.Servizio = hints.Service
	}
	if lead.Urgenza == "" {
		lead.Urgenza = hints.Urgency
	}
	if lead.Zona == "" {
		lead.Zona = hints.Zone
	}
	if lead.Extra.FotoURL == "" && len(images) > 0 {
		lead.Extra.FotoURL = images[0]
	}
}
