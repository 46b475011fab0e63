package picker

import "context"

// Provider supplies the items the picker lists.
type Provider interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request describes what items the picker wants from a Provider.
type Request struct {
	RequestID uint64 // Monotonically increasing, for stale response detection
	Query     string // Search filter
	TabID     string // Active tab identifier
	Limit     int
	Offset    int
}

// Response carries items back from a Provider.
type Response struct {
	RequestID uint64 // Must match Request.RequestID to be accepted
	Items     []string
	AtEnd     bool // No more pages available
}

// Tab is one source the user can switch to with Tab.
type Tab struct {
	ID    string
	Label string
}

// Tab identifiers understood by StoreProvider.
const (
	TabHistory  = "history"
	TabCommands = "commands"
)

// DefaultTabs lists session history first and command names second.
func DefaultTabs() []Tab {
	return []Tab{
		{ID: TabHistory, Label: "History"},
		{ID: TabCommands, Label: "Commands"},
	}
}
