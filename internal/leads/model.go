package leads

import (
	"strings"
	"time"
)

// Service enumerates the marketplace's service categories.
type Service string

const (
	ServiceIdraulico        Service = "idraulico"
	ServiceFabbro           Service = "fabbro"
	ServiceElettricista     Service = "elettricista"
	ServiceSpurgo           Service = "spurgo"
	ServiceCaldaia          Service = "caldaia"
	ServiceDisinfestazione  Service = "disinfestazione"
	ServiceVetraio          Service = "vetraio"
	ServiceSoccorsoStradale Service = "soccorso-stradale"
)

// Urgency values the assistant recognizes. Free text is tolerated: the model
// may echo the user's own wording for anything that does not fit the enum.
const (
	UrgencySubito     = "subito"
	UrgencyOggi       = "oggi"
	UrgencyNonUrgente = "non urgente"
)

// Extra carries service-specific qualification fields. Only the fields that
// belong to the lead's servizio are expected to be populated; absent fields
// stay absent rather than defaulting to empty values.
type Extra struct {
	// fabbro
	TipoSerratura  string `json:"tipo_serratura,omitempty"`
	ChiaveSpezzata bool   `json:"chiave_spezzata,omitempty"`

	// idraulico
	TipoPerdita     string `json:"tipo_perdita,omitempty"`
	RubinettoChiuso *bool  `json:"rubinetto_chiuso,omitempty"`

	// any service
	FotoURL string `json:"foto_url,omitempty"`
}

// IsZero reports whether no extra field is set.
func (e Extra) IsZero() bool {
	return e == Extra{}
}

// Pricing is the indicative price attached to a lead. Ready=false means the
// figure is a range midpoint or estimate, not a committed price.
type Pricing struct {
	Ready bool    `json:"ready"`
	Item  string  `json:"item,omitempty"`
	Price float64 `json:"price,omitempty"`
	Note  string  `json:"note,omitempty"`
}

// Contatto holds the caller's contact details once volunteered.
type Contatto struct {
	Nome     string `json:"nome,omitempty"`
	Telefono string `json:"telefono,omitempty"`
}

// Lead is the structured qualification record built up across a conversation
// and handed to a human operator on confirmation.
type Lead struct {
	Servizio     Service   `json:"servizio,omitempty"`
	Zona         string    `json:"zona,omitempty"`
	Urgenza      string    `json:"urgenza,omitempty"`
	Problema     string    `json:"problema,omitempty"`
	Accesso      string    `json:"accesso,omitempty"`
	FasciaOraria string    `json:"fascia_oraria,omitempty"`
	Note         string    `json:"note,omitempty"`
	Extra        Extra     `json:"extra,omitempty"`
	Pricing      *Pricing  `json:"pricing,omitempty"`
	Contatto     *Contatto `json:"contatto,omitempty"`
}

// Actionable reports whether the lead may be confirmed and sent to an
// operator. This is the sole gating rule the consuming UI relies on:
// servizio and zona must be known, plus either a problem description or a
// committed price.
func (l *Lead) Actionable() bool {
	if l == nil {
		return false
	}
	if strings.TrimSpace(string(l.Servizio)) == "" || strings.TrimSpace(l.Zona) == "" {
		return false
	}
	if strings.TrimSpace(l.Problema) != "" {
		return true
	}
	return l.Pricing != nil && l.Pricing.Ready
}

// Merge overlays the receiver's empty slots with values from prev. Fields the
// current turn filled in always win; a lead only ever accumulates within a
// session, it is never un-filled.
func (l *Lead) Merge(prev *Lead) {
	if l == nil || prev == nil {
		return
	}
	if l.Servizio == "" {
		l.Servizio = prev.Servizio
	}
	if l.Zona == "" {
		l.Zona = prev.Zona
	}
	if l.Urgenza == "" {
		l.Urgenza = prev.Urgenza
	}
	if l.Problema == "" {
		l.Problema = prev.Problema
	}
	if l.Accesso == "" {
		l.Accesso = prev.Accesso
	}
	if l.FasciaOraria == "" {
		l.FasciaOraria = prev.FasciaOraria
	}
	if l.Note == "" {
		l.Note = prev.Note
	}
	if l.Extra.TipoSerratura == "" {
		l.Extra.TipoSerratura = prev.Extra.TipoSerratura
	}
	if !l.Extra.ChiaveSpezzata {
		l.Extra.ChiaveSpezzata = prev.Extra.ChiaveSpezzata
	}
	if l.Extra.TipoPerdita == "" {
		l.Extra.TipoPerdita = prev.Extra.TipoPerdita
	}
	if l.Extra.RubinettoChiuso == nil {
		l.Extra.RubinettoChiuso = prev.Extra.RubinettoChiuso
	}
	if l.Extra.FotoURL == "" {
		l.Extra.FotoURL = prev.Extra.FotoURL
	}
	if l.Pricing == nil {
		l.Pricing = prev.Pricing
	}
	if l.Contatto == nil {
		l.Contatto = prev.Contatto
	}
}

// Record is a confirmed lead as persisted for operator pickup.
type Record struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Lead           Lead      `json:"lead"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRecordRequest is the payload for persisting a confirmed lead.
type CreateRecordRequest struct {
	ConversationID string `json:"conversation_id"`
	Lead           Lead   `json:"lead"`
}

// Validate checks that the record can be handed to an operator.
func (r *CreateRecordRequest) Validate() error {
	if strings.TrimSpace(r.ConversationID) == "" {
		return ErrMissingConversation
	}
	if !r.Lead.Actionable() {
		return ErrNotActionable
	}
	return nil
}
