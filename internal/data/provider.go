package data

import "context"

// Provider produces records for a named category.
type Provider interface {
	Fetch(ctx context.Context, category string) (Record, error)
	// Remote reports whether Fetch may block on the network, in which case
	// views render loading panels first.
	Remote() bool
}
