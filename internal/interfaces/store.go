package interfaces

import "context"

// DocumentStore is an append-only collection store. Documents carry a
// "timestamp" field; FindLatest decodes the newest one into out.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc any) error
	FindLatest(ctx context.Context, collection string, out any) (bool, error)
	Close(ctx context.Context) error
}
