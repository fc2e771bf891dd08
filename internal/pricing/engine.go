package pricing

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/prontocasa/assistant/internal/leads"
)

// Quote is a point price for a known fault type.
type Quote struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
	Night bool    `json:"night"`
}

// Range is an indicative min/max over a service's whole fault table, used
// when the exact fault type is not yet known. An honest range beats a
// false-precision point estimate.
type Range struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	NightAdd *NightAdd `json:"night_add,omitempty"`
}

// NightAdd is the extra min/max on top of Range for night/holiday calls.
type NightAdd struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// nightRE matches night/holiday language in urgency and note text.
var nightRE = regexp.MustCompile(`(?i)\b(nott\w*|stanotte|sera|serata|tardi|festiv\w*|domenica|weekend|fine\s*settimana|ferragosto|natale|capodanno)\b`)

// IsNightOrHoliday reports whether the text asks for a night or holiday call.
func IsNightOrHoliday(text string) bool {
	return nightRE.MatchString(text)
}

// roundHalfUp rounds to the nearest whole euro, halves away from zero.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// faultKey picks the lead field that indexes the tariff for its service.
func faultKey(lead *leads.Lead) string {
	switch lead.Servizio {
	case leads.ServiceFabbro:
		return lead.Extra.TipoSerratura
	case leads.ServiceIdraulico:
		return lead.Extra.TipoPerdita
	default:
		return ""
	}
}

// PointPrice computes the committed price for the lead's fault type, or
// ok=false when the tariff has no entry, so absence stays distinguishable
// from a legitimately free service. The surcharge is added before the night
// multiplier; rounding happens only after the multiplication.
func PointPrice(lead *leads.Lead, table Table) (Quote, bool) {
	if lead == nil || len(table) == 0 {
		return Quote{}, false
	}
	tariff, ok := table[lead.Servizio]
	if !ok || len(tariff.Items) == 0 {
		return Quote{}, false
	}

	key := NormalizeKey(faultKey(lead))
	if key == "" {
		return Quote{}, false
	}
	base, ok := tariff.Items[key]
	if !ok {
		return Quote{}, false
	}

	price := base
	item := strings.ReplaceAll(key, "_", " ")
	if lead.Servizio == leads.ServiceFabbro && lead.Extra.ChiaveSpezzata {
		price += tariff.Extra.ChiaveSpezzata
		item += " + estrazione chiave spezzata"
	}

	night := IsNightOrHoliday(lead.Urgenza + " " + lead.Note)
	if night && tariff.Extra.NotturnoFestivo > 1 {
		price = roundHalfUp(price * tariff.Extra.NotturnoFestivo)
	}

	return Quote{Item: item, Price: price, Night: night}, true
}

// RangePrice derives the min/max of all base prices for the service, plus
// the night/holiday add-on when a multiplier above 1 is configured.
func RangePrice(service leads.Service, table Table) (Range, bool) {
	if len(table) == 0 {
		return Range{}, false
	}
	tariff, ok := table[service]
	if !ok || len(tariff.Items) == 0 {
		return Range{}, false
	}

	prices := make([]float64, 0, len(tariff.Items))
	for _, p := range tariff.Items {
		prices = append(prices, p)
	}
	sort.Float64s(prices)

	r := Range{Min: prices[0], Max: prices[len(prices)-1]}
	if m := tariff.Extra.NotturnoFestivo; m > 1 {
		r.NightAdd = &NightAdd{
			Min: roundHalfUp(r.Min * (m - 1)),
			Max: roundHalfUp(r.Max * (m - 1)),
		}
	}
	return r, true
}
