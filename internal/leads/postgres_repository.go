package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/movne-global/sales-ai-platform/internal/extraction"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is a Repository backed by PostgreSQL.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository creates a new PostgreSQL-backed repository
func NewPostgresRepository(pool db) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveCandidates inserts a lead and its candidate rows in one transaction.
func (r *PostgresRepository) SaveCandidates(ctx context.Context, conversationID string, candidates extraction.Candidates) (string, error) {
	if candidates.IsEmpty() {
		return "", ErrNoCandidates
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var leadID string
	err = tx.QueryRow(ctx,
		`INSERT INTO leads (conversation_id, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		conversationID, StatusNew,
	).Scan(&leadID)
	if err != nil {
		return "", fmt.Errorf("insert lead: %w", err)
	}

	for _, row := range candidateRows(candidates, time.Now().UTC()) {
		_, err = tx.Exec(ctx,
			`INSERT INTO lead_candidates (lead_id, kind, value, value_e164)
			 VALUES ($1, $2, $3, $4)`,
			leadID, row.Kind, row.Value, nullable(row.ValueE164),
		)
		if err != nil {
			return "", fmt.Errorf("insert candidate: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return leadID, nil
}

// GetByID retrieves a lead with its candidates.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx,
		`SELECT id, conversation_id, status, created_at
		 FROM leads WHERE id = $1`,
		id,
	).Scan(&lead.ID, &lead.ConversationID, &lead.Status, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query lead: %w", err)
	}

	if err := r.loadCandidates(ctx, []*Lead{&lead}); err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListByConversation returns all leads from one conversation, oldest first.
func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID string) ([]*Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, conversation_id, status, created_at
		 FROM leads
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadCandidates(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// ListRecent returns leads created within the window, newest first. An empty
// status matches every status.
func (r *PostgresRepository) ListRecent(ctx context.Context, window time.Duration, status string) ([]*Lead, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `SELECT id, conversation_id, status, created_at
		 FROM leads
		 WHERE created_at >= $1`
	args := []any{cutoff}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadCandidates(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// UpdateStatus sets the workflow label on a lead.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if strings.TrimSpace(status) == "" {
		return ErrEmptyStatus
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *PostgresRepository) loadCandidates(ctx context.Context, leads []*Lead) error {
	byID := make(map[string]*Lead, len(leads))
	ids := make([]string, 0, len(leads))
	for _, lead := range leads {
		byID[lead.ID] = lead
		ids = append(ids, lead.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT lead_id, id, kind, value, COALESCE(value_e164, ''), created_at
		 FROM lead_candidates
		 WHERE lead_id = ANY($1)
		 ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leadID string
		var c ContactCandidate
		if err := rows.Scan(&leadID, &c.ID, &c.Kind, &c.Value, &c.ValueE164, &c.CreatedAt); err != nil {
			return fmt.Errorf("scan candidate: %w", err)
		}
		if lead, ok := byID[leadID]; ok {
			lead.Candidates = append(lead.Candidates, c)
		}
	}
	return rows.Err()
}

func scanLeads(rows pgx.Rows) ([]*Lead, error) {
	var leads []*Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(&lead.ID, &lead.ConversationID, &lead.Status, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
