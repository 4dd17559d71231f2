package leads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movne-global/sales-ai-platform/internal/extraction"
)

func TestInMemorySaveCandidates(t *testing.T) {
	repo := NewInMemoryRepository()

	id, err := repo.SaveCandidates(context.Background(), "conv-1", extraction.Candidates{
		Phones: []string{"0501234567"},
		Names:  []string{"דני"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	lead, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", lead.ConversationID)
	assert.Equal(t, StatusNew, lead.Status)
	require.Len(t, lead.Candidates, 2)

	assert.Equal(t, "phone", lead.Candidates[0].Kind)
	assert.Equal(t, "0501234567", lead.Candidates[0].Value)
	assert.Equal(t, "+972501234567", lead.Candidates[0].ValueE164)
	assert.Equal(t, "name", lead.Candidates[1].Kind)
	assert.Equal(t, "דני", lead.Candidates[1].Value)
	assert.Empty(t, lead.Candidates[1].ValueE164)
}

func TestInMemorySaveCandidatesEmpty(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.SaveCandidates(context.Background(), "conv-1", extraction.Candidates{})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestInMemoryListByConversation(t *testing.T) {
	repo := NewInMemoryRepository()

	first, err := repo.SaveCandidates(context.Background(), "conv-1", extraction.Candidates{
		Emails: []string{"dani@example.com"},
	})
	require.NoError(t, err)
	_, err = repo.SaveCandidates(context.Background(), "conv-2", extraction.Candidates{
		Emails: []string{"other@example.com"},
	})
	require.NoError(t, err)

	leads, err := repo.ListByConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, first, leads[0].ID)
}

func TestInMemoryListRecentFiltersStatus(t *testing.T) {
	repo := NewInMemoryRepository()

	id, err := repo.SaveCandidates(context.Background(), "conv-1", extraction.Candidates{
		Phones: []string{"0501234567"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), id, "contacted"))

	leads, err := repo.ListRecent(context.Background(), time.Hour, "contacted")
	require.NoError(t, err)
	require.Len(t, leads, 1)

	leads, err = repo.ListRecent(context.Background(), time.Hour, StatusNew)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestInMemoryUpdateStatusErrors(t *testing.T) {
	repo := NewInMemoryRepository()

	err := repo.UpdateStatus(context.Background(), "missing", "contacted")
	assert.ErrorIs(t, err, ErrLeadNotFound)

	id, err := repo.SaveCandidates(context.Background(), "conv-1", extraction.Candidates{
		Phones: []string{"0501234567"},
	})
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), id, "  ")
	assert.ErrorIs(t, err, ErrEmptyStatus)
}
