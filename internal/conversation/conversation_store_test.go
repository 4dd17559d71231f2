package conversation

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMessagesFullTranscriptIsChronological(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs("conv-1").
		WillReturnRows(pgxmock.NewRows([]string{"role", "content"}).
			AddRow("user", "first").
			AddRow("assistant", "second"))

	store := NewConversationStore(mock)
	messages, err := store.GetMessages(context.Background(), "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessagesWithLimitReturnsRecentWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// The store queries newest-first when limited; rows arrive in
	// reverse-chronological order.
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("conv-1", 3).
		WillReturnRows(pgxmock.NewRows([]string{"role", "content"}).
			AddRow("assistant", "turn 50").
			AddRow("user", "turn 49").
			AddRow("assistant", "turn 48"))

	store := NewConversationStore(mock)
	messages, err := store.GetMessages(context.Background(), "conv-1", 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// The newest rows come back in chronological order so the prompt
	// history reads oldest to newest.
	assert.Equal(t, "turn 48", messages[0].Content)
	assert.Equal(t, "turn 49", messages[1].Content)
	assert.Equal(t, "turn 50", messages[2].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessagesNilStoreReturnsEmpty(t *testing.T) {
	var store *ConversationStore
	messages, err := store.GetMessages(context.Background(), "conv-1", 5)
	require.NoError(t, err)
	assert.Nil(t, messages)
}
