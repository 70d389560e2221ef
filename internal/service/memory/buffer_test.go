package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tutord/internal/core"
)

type fakeSummarizer struct {
	calls  [][]core.Message
	errs   []error // consumed per call; nil entries succeed
	result string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, messages []core.Message) (string, error) {
	f.calls = append(f.calls, append([]core.Message(nil), messages...))
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if f.result != "" {
		return f.result, nil
	}
	return fmt.Sprintf("summary #%d", len(f.calls)), nil
}

func msgs(n int) []core.Message {
	out := make([]core.Message, n)
	for i := range out {
		role := core.RoleHuman
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		out[i] = core.Message{Role: role, Content: fmt.Sprintf("m%d", i), CreatedAt: time.Now()}
	}
	return out
}

func exchange() []core.Message {
	return []core.Message{
		{Role: core.RoleHuman, Content: "question"},
		{Role: core.RoleAssistant, Content: "answer"},
	}
}

func TestStageExchange_AppendsOnly(t *testing.T) {
	sum := &fakeSummarizer{}
	b := NewBuffer(sum, 10)

	ops, err := b.StageExchange(context.Background(), msgs(4), exchange())
	require.NoError(t, err)

	require.Len(t, ops, 2)
	assert.NotNil(t, ops[0].Append)
	assert.NotNil(t, ops[1].Append)
	assert.Empty(t, sum.calls, "no compaction below capacity")
}

func TestStageExchange_CompactsAtExactlyCapacity(t *testing.T) {
	sum := &fakeSummarizer{}
	b := NewBuffer(sum, 10)

	// 8 buffered + 2 incoming fills the buffer on the second append.
	ops, err := b.StageExchange(context.Background(), msgs(8), exchange())
	require.NoError(t, err)

	require.Len(t, ops, 3)
	assert.NotNil(t, ops[0].Append)
	assert.NotNil(t, ops[1].Append)
	require.NotNil(t, ops[2].Compact)

	require.Len(t, sum.calls, 1)
	assert.Len(t, sum.calls[0], 10, "compaction covers exactly one full block")
	assert.Equal(t, "answer", sum.calls[0][9].Content)
}

func TestStageExchange_MidExchangeCompaction(t *testing.T) {
	sum := &fakeSummarizer{}
	b := NewBuffer(sum, 10)

	// The first incoming message fills the block; the second starts the
	// next block after the compaction.
	ops, err := b.StageExchange(context.Background(), msgs(9), exchange())
	require.NoError(t, err)

	require.Len(t, ops, 3)
	assert.NotNil(t, ops[0].Append)
	require.NotNil(t, ops[1].Compact)
	assert.NotNil(t, ops[2].Append)
	require.Len(t, sum.calls, 1)
	assert.Len(t, sum.calls[0], 10)
}

func TestStageExchange_FailOpenKeepsExchange(t *testing.T) {
	sum := &fakeSummarizer{errs: []error{fmt.Errorf("model offline")}}
	b := NewBuffer(sum, 10)

	ops, err := b.StageExchange(context.Background(), msgs(8), exchange())
	require.NoError(t, err, "summarization failure must not fail the exchange")

	require.Len(t, ops, 2)
	assert.NotNil(t, ops[0].Append)
	assert.NotNil(t, ops[1].Append)
}

func TestStageExchange_MandatoryCompactionAfterFailOpen(t *testing.T) {
	// A full buffer left by an earlier fail-open makes the next
	// compaction mandatory.
	sum := &fakeSummarizer{}
	b := NewBuffer(sum, 10)

	ops, err := b.StageExchange(context.Background(), msgs(10), exchange())
	require.NoError(t, err)

	require.Len(t, ops, 3)
	require.NotNil(t, ops[0].Compact)
	assert.NotNil(t, ops[1].Append)
	assert.NotNil(t, ops[2].Append)
	require.Len(t, sum.calls, 1)
	assert.Len(t, sum.calls[0], 10)
}

func TestStageExchange_MandatoryCompactionFailureRejects(t *testing.T) {
	sum := &fakeSummarizer{errs: []error{fmt.Errorf("still offline")}}
	b := NewBuffer(sum, 10)

	_, err := b.StageExchange(context.Background(), msgs(10), exchange())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestStageExchange_SmallCapacityMultipleBlocks(t *testing.T) {
	sum := &fakeSummarizer{}
	b := NewBuffer(sum, 2)

	// Each exchange fills a whole block at capacity 2.
	ops, err := b.StageExchange(context.Background(), nil, exchange())
	require.NoError(t, err)

	require.Len(t, ops, 3)
	assert.NotNil(t, ops[0].Append)
	assert.NotNil(t, ops[1].Append)
	require.NotNil(t, ops[2].Compact)
	require.Len(t, sum.calls, 1)
	assert.Len(t, sum.calls[0], 2)
}

func TestNewBuffer_DefaultCapacity(t *testing.T) {
	b := NewBuffer(&fakeSummarizer{}, 0)
	assert.Equal(t, DefaultCapacity, b.Capacity())
}
