package ephemeral

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("ephemeral token not found")

// Repo persists tokens. Get and Delete return ErrNotFound for unknown tokens;
// Delete reporting ErrNotFound is how a second consumer learns it lost the race.
type Repo interface {
	Insert(ctx context.Context, token *Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
