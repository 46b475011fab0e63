package picker

import (
	"context"
	"strings"

	"github.com/runger/lineloop/internal/history"
)

// StoreProvider serves the session history and the registered command
// names.
type StoreProvider struct {
	Store    *history.Store
	Commands func() []string
}

var _ Provider = (*StoreProvider)(nil)

// Fetch implements Provider.
func (p *StoreProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	var (
		items []string
		atEnd = true
	)
	switch req.TabID {
	case TabCommands:
		if p.Commands != nil {
			items, atEnd = page(matching(p.Commands(), req.Query), req.Offset, req.Limit)
		}
	default:
		if p.Store != nil {
			items, atEnd = p.Store.Search(req.Query, req.Offset, req.Limit)
		}
	}
	for i, item := range items {
		items[i] = Sanitize(item)
	}
	return Response{RequestID: req.RequestID, Items: items, AtEnd: atEnd}, nil
}

func matching(values []string, query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			out = append(out, v)
		}
	}
	return out
}

func page(items []string, offset, limit int) ([]string, bool) {
	if offset >= len(items) {
		return nil, true
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		return items[:limit], false
	}
	return items, true
}
