package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

type scriptedLLM struct {
	calls     int
	responses []LLMResponse
	errs      []error
}

func (s *scriptedLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.errs) {
		idx = len(s.errs) - 1
	}
	return s.responses[idx], s.errs[idx]
}

func TestFallbackClientPrimarySucceeds(t *testing.T) {
	primary := &scriptedLLM{
		responses: []LLMResponse{{Text: "primary"}},
		errs:      []error{nil},
	}
	fallback := &scriptedLLM{
		responses: []LLMResponse{{Text: "fallback"}},
		errs:      []error{nil},
	}

	client := NewFallbackLLMClient(primary, fallback, logging.Default())
	resp, err := client.Complete(context.Background(), LLMRequest{})

	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFallbackClientUsesFallback(t *testing.T) {
	primary := &scriptedLLM{
		responses: []LLMResponse{{}},
		errs:      []error{errors.New("primary down")},
	}
	fallback := &scriptedLLM{
		responses: []LLMResponse{{Text: "fallback"}},
		errs:      []error{nil},
	}

	client := NewFallbackLLMClient(primary, fallback, logging.Default(), WithMaxAttempts(1))
	resp, err := client.Complete(context.Background(), LLMRequest{})

	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackClientRetriesPrimary(t *testing.T) {
	primary := &scriptedLLM{
		responses: []LLMResponse{{}, {Text: "second try"}},
		errs:      []error{errors.New("transient"), nil},
	}

	client := NewFallbackLLMClient(primary, nil, logging.Default(), WithMaxAttempts(2))
	resp, err := client.Complete(context.Background(), LLMRequest{})

	require.NoError(t, err)
	assert.Equal(t, "second try", resp.Text)
	assert.Equal(t, 2, primary.calls)
}

func TestFallbackClientAllFail(t *testing.T) {
	primary := &scriptedLLM{
		responses: []LLMResponse{{}},
		errs:      []error{errors.New("primary down")},
	}
	fallback := &scriptedLLM{
		responses: []LLMResponse{{}},
		errs:      []error{errors.New("fallback down")},
	}

	client := NewFallbackLLMClient(primary, fallback, logging.Default(), WithMaxAttempts(1))
	_, err := client.Complete(context.Background(), LLMRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback down")
}

func TestFallbackClientRespectsCancellation(t *testing.T) {
	primary := &scriptedLLM{
		responses: []LLMResponse{{}},
		errs:      []error{errors.New("slow")},
	}
	fallback := &scriptedLLM{
		responses: []LLMResponse{{Text: "unused"}},
		errs:      []error{nil},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewFallbackLLMClient(primary, fallback, logging.Default(),
		WithMaxAttempts(3), WithAttemptTimeout(time.Second))
	_, err := client.Complete(ctx, LLMRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fallback.calls)
}
