package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/movne-global/sales-ai-platform/internal/extraction"
)

// Repository defines the interface for lead storage
type Repository interface {
	SaveCandidates(ctx context.Context, conversationID string, candidates extraction.Candidates) (string, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*Lead, error)
	ListRecent(ctx context.Context, window time.Duration, status string) ([]*Lead, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// InMemoryRepository is a Repository backed by process memory, used in
// development mode and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// candidateRows flattens an extraction result into persisted candidate rows.
func candidateRows(candidates extraction.Candidates, now time.Time) []ContactCandidate {
	var rows []ContactCandidate
	add := func(kind extraction.Kind, values []string) {
		for _, v := range values {
			row := ContactCandidate{
				ID:        uuid.NewString(),
				Kind:      string(kind),
				Value:     v,
				CreatedAt: now,
			}
			if kind == extraction.KindPhone {
				row.ValueE164 = extraction.NormalizeE164(v)
			}
			rows = append(rows, row)
		}
	}
	add(extraction.KindPhone, candidates.Phones)
	add(extraction.KindEmail, candidates.Emails)
	add(extraction.KindName, candidates.Names)
	add(extraction.KindInvestorType, candidates.InvestorTypes)
	add(extraction.KindCompany, candidates.Companies)
	return rows
}

// SaveCandidates creates a lead holding every candidate from the pass.
func (r *InMemoryRepository) SaveCandidates(_ context.Context, conversationID string, candidates extraction.Candidates) (string, error) {
	if candidates.IsEmpty() {
		return "", ErrNoCandidates
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Status:         StatusNew,
		CreatedAt:      now,
		Candidates:     candidateRows(candidates, now),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead.ID, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// ListByConversation returns all leads captured from one conversation,
// oldest first.
func (r *InMemoryRepository) ListByConversation(_ context.Context, conversationID string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if lead.ConversationID == conversationID {
			out = append(out, lead)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListRecent returns leads created within the window, optionally filtered by
// status, newest first.
func (r *InMemoryRepository) ListRecent(_ context.Context, window time.Duration, status string) ([]*Lead, error) {
	cutoff := time.Now().UTC().Add(-window)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if lead.CreatedAt.Before(cutoff) {
			continue
		}
		if status != "" && lead.Status != status {
			continue
		}
		out = append(out, lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateStatus sets the workflow label on a lead.
func (r *InMemoryRepository) UpdateStatus(_ context.Context, id, status string) error {
	if strings.TrimSpace(status) == "" {
		return ErrEmptyStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.Status = status
	return nil
}
