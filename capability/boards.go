package capability

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"time"

	"scour/core"
)

// Boards is the capability name for discussion-board backends.
const Boards = "boards"

// Thread is one discussion thread or story.
type Thread struct {
	Record
	Title    string
	URL      string
	Author   string
	Score    int
	Comments int
	Date     time.Time
}

// BoardsBackend is implemented by modules exposing the boards capability.
// SearchThreads returns a lazy stream: items are fetched as the dispatcher
// pulls them, which is also where cancellation takes effect.
type BoardsBackend interface {
	SearchThreads(ctx context.Context, query string, limit int) iter.Seq2[*Thread, error]
}

// SearchThreadsOp dispatches BoardsBackend.SearchThreads as a lazy stream.
func SearchThreadsOp(query string, limit int) core.Operation {
	return func(ctx context.Context, h *core.BackendHandle) (any, error) {
		b, ok := h.Instance().(BoardsBackend)
		if !ok {
			return nil, fmt.Errorf("backend %s does not implement %s", h, Boards)
		}
		threads := b.SearchThreads(ctx, query, limit)
		var seq iter.Seq2[any, error] = func(yield func(any, error) bool) {
			for t, err := range threads {
				if !yield(t, err) {
					return
				}
			}
		}
		return seq, nil
	}
}

func init() {
	RegisterOp(Boards, "search", func(args []string) (core.Operation, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("usage: boards search <query> [limit]")
		}
		limit := 10
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		return SearchThreadsOp(args[0], limit), nil
	})
}
