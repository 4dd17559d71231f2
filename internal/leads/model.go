package leads

import (
	"time"
)

// Lead statuses are free-form workflow labels driven by operators.
// The engine only ever creates leads with StatusNew; transitions happen
// through the admin API.
const StatusNew = "new"

// ContactCandidate is one captured contact value tied to a lead.
type ContactCandidate struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	ValueE164 string    `json:"value_e164,omitempty"` // phones only, when valid
	CreatedAt time.Time `json:"created_at"`
}

// Lead aggregates the candidates captured from one extraction pass over a
// conversation. Repeated mentions across turns produce separate leads on
// purpose; cross-pass dedup belongs to whoever consumes the lead trail.
type Lead struct {
	ID             string             `json:"id"`
	ConversationID string             `json:"conversation_id"`
	Status         string             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	Candidates     []ContactCandidate `json:"candidates"`
}
