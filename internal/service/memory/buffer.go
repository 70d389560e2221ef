// Package memory manages the bounded conversation buffer and its
// summarization trigger. The buffer holds at most N messages; whenever it
// fills to exactly N, that block is compacted into one summary and cleared.
package memory

import (
	"context"
	"fmt"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/pkg/log"
)

const DefaultCapacity = 10

// Summarizer compacts one full buffer block into a single summary text.
type Summarizer interface {
	Summarize(ctx context.Context, messages []core.Message) (string, error)
}

// Buffer owns the capacity rule and the summarization trigger. It stages
// exchange ops; the store commits them atomically.
type Buffer struct {
	summarizer Summarizer
	capacity   int
}

func NewBuffer(summarizer Summarizer, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{summarizer: summarizer, capacity: capacity}
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

// StageExchange turns the incoming messages of one exchange into an
// ordered op list, interleaving compactions where the buffer fills:
//
//   - If the buffer is already full before an append (a previous fail-open
//     compaction failed), compaction is mandatory: its failure rejects the
//     whole exchange, since the buffer may never exceed capacity.
//   - If an append fills the buffer to exactly capacity, compaction is
//     attempted fail-open: on failure the buffer keeps its block
//     uncompacted and the exchange still succeeds.
//
// Each staged compaction covers exactly one capacity-sized block in
// chronological order, so summaries stay gapless.
func (b *Buffer) StageExchange(ctx context.Context, buffered []core.Message, incoming []core.Message) ([]core.ExchangeOp, error) {
	logger := log.FromCtx(ctx)

	ops := make([]core.ExchangeOp, 0, len(incoming)+1)
	block := make([]core.Message, len(buffered))
	copy(block, buffered)

	for i := range incoming {
		if len(block) >= b.capacity {
			text, err := b.summarizer.Summarize(ctx, block)
			if err != nil {
				return nil, fmt.Errorf("%w: mandatory buffer compaction: %v", core.ErrUpstream, err)
			}
			ops = append(ops, core.ExchangeOp{Compact: &core.Summary{Content: text}})
			block = block[:0]
		}

		msg := incoming[i]
		ops = append(ops, core.ExchangeOp{Append: &msg})
		block = append(block, msg)

		if len(block) == b.capacity {
			text, err := b.summarizer.Summarize(ctx, block)
			if err != nil {
				logger.Warn().Err(err).Int("buffered", len(block)).
					Msg("buffer summarization failed, keeping messages uncompacted")
				continue
			}
			ops = append(ops, core.ExchangeOp{Compact: &core.Summary{Content: text}})
			block = block[:0]
		}
	}

	return ops, nil
}
