package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// Stats summarizes the stored data set.
type Stats struct {
	Conversations int64
	Messages      int64
	ContentItems  int64
	Usage         UsageTotals
}

// UsageTotals aggregates token accounting across every stored usage item.
// Items with absent counters contribute zero.
type UsageTotals struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type countRow struct {
	Count int64 `json:"count"`
}

// Stats reports record counts per table and the token usage recorded in
// conversation history.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{}

	counts := []struct {
		table  string
		target *int64
	}{
		{"conversation", &out.Conversations},
		{"message", &out.Messages},
		{"content", &out.ContentItems},
	}
	for _, c := range counts {
		rows, err := surrealdb.Query[[]countRow](ctx, s.client.db,
			fmt.Sprintf("SELECT count() FROM %s GROUP ALL", c.table), nil)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, wrapQueryError(err))
		}
		if rows != nil && len(*rows) > 0 && len((*rows)[0].Result) > 0 {
			*c.target = (*rows)[0].Result[0].Count
		}
	}

	totals, err := surrealdb.Query[[]UsageTotals](ctx, s.client.db, `
		SELECT
			math::sum(input_tokens ?? 0) AS input_tokens,
			math::sum(output_tokens ?? 0) AS output_tokens,
			math::sum(total_tokens ?? 0) AS total_tokens
		FROM content WHERE kind = "usage" GROUP ALL
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("sum token usage: %w", wrapQueryError(err))
	}
	if totals != nil && len(*totals) > 0 && len((*totals)[0].Result) > 0 {
		out.Usage = (*totals)[0].Result[0]
	}
	return out, nil
}
