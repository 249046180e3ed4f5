// Package statestore persists the current session's token, refresh token, and
// account snapshot as three keyed values in a local SQLite database, the
// durable mirror of exactly one session.
package statestore

import "context"

// Repository is a small key/value contract over the session_state table.
// Get returns (nil, nil) when the key is absent. The table holds exactly one
// session record, so clearing is whole-table.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}
