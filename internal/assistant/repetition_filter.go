package assistant

import "strings"

const (
	// repetitionWindow is how many normalized characters of a candidate line
	// are compared against the previous assistant turn. Tunable, chosen
	// empirically: long enough to skip boilerplate openers, short enough to
	// catch rephrased endings.
	repetitionWindow = 40

	// repetitionFloor protects very short lines ("Va bene!", "Perfetto.")
	// from false-positive matches.
	repetitionFloor = 12
)

// boilerplatePrefixes are lines the model tends to emit every turn. They are
// rate-limited to a single occurrence per reply regardless of history.
var boilerplatePrefixes = []string{
	normalizeLine("Se preferisci, chiama"),
	normalizeLine("Dalla foto sembra"),
}

// FilterRepetition removes candidate lines that substantially duplicate the
// immediately preceding assistant turn, and collapses boilerplate lines to a
// single occurrence. The filter only deletes: it never reorders lines and
// never fabricates replacement text.
func FilterRepetition(candidate string, prevAssistant string) string {
	if strings.TrimSpace(candidate) == "" {
		return candidate
	}

	prev := normalizeLine(prevAssistant)
	seenBoilerplate := make(map[string]bool, len(boilerplatePrefixes))

	lines := strings.Split(candidate, "\n")
	kept := lines[:0]
	for _, line := range lines {
		norm := normalizeLine(line)
		if norm == "" {
			kept = append(kept, line)
			continue
		}

		// Boilerplate appears at most once per reply even when the lines
		// differ after the prefix; the history rule below still applies.
		if prefix := boilerplateKey(norm); prefix != "" {
			if seenBoilerplate[prefix] {
				continue
			}
			seenBoilerplate[prefix] = true
		}

		if prev != "" && len(norm) >= repetitionFloor {
			probe := norm
			if len(probe) > repetitionWindow {
				probe = probe[:repetitionWindow]
			}
			if strings.Contains(prev, probe) {
				continue
			}
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// boilerplateKey returns the matching boilerplate prefix, or "".
func boilerplateKey(norm string) string {
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(norm, p) {
			return p
		}
	}
	return ""
}

// normalizeLine lowercases and collapses whitespace for comparison.
func normalizeLine(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
