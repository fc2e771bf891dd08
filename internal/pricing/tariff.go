package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/prontocasa/assistant/internal/geo"
	"github.com/prontocasa/assistant/internal/leads"
)

// TariffExtra holds a service's fixed surcharges and modifiers.
type TariffExtra struct {
	// ChiaveSpezzata is the flat fee for extracting a broken key (fabbro).
	ChiaveSpezzata float64 `json:"chiave_spezzata,omitempty"`
	// NotturnoFestivo multiplies the running price on night/holiday calls.
	// Values <= 1 disable the modifier.
	NotturnoFestivo float64 `json:"notturno_festivo,omitempty"`
}

// Tariff is one service's price book: fault-type key to base price in euros.
type Tariff struct {
	Items map[string]float64 `json:"items"`
	Extra TariffExtra        `json:"extra"`
}

// Table maps a service category to its tariff. A nil or empty table is valid
// input everywhere and simply yields no prices.
type Table map[leads.Service]Tariff

// ParseTable decodes a tariff table from JSON.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("pricing: parse tariff table: %w", err)
	}
	return t, nil
}

// LoadTable reads the tariff table from a JSON file at startup.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read tariff table: %w", err)
	}
	return ParseTable(data)
}

// NormalizeKey maps free-text fault descriptions onto the tariff key space:
// casefolded, diacritics stripped, spaces as underscores.
func NormalizeKey(s string) string {
	return strings.ReplaceAll(geo.Normalize(s), " ", "_")
}
