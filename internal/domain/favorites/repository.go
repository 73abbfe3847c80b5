package favorites

import "context"

// Repository abstracts favorites persistence. Insert must check for and add an
// entry atomically so concurrent adds of one identity yield one success.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	Insert(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key Key) error
}
