package pushtokens

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repo stores at most one push token per user. A new save replaces the old
// token.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

func (r *Repo) Save(ctx context.Context, email, token string) error {
	const q = `
insert into push_tokens (email, token, updated_at)
values ($1, $2, $3)
on conflict (email) do update
set token = excluded.token, updated_at = excluded.updated_at
`
	if _, err := r.db.ExecContext(ctx, q, email, token, r.now().UTC()); err != nil {
		return fmt.Errorf("save push token: %w", err)
	}
	return nil
}

// Prune deletes rows still holding any of tokens. It is used to drop tokens
// the push provider reported as unregistered.
func (r *Repo) Prune(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `delete from push_tokens where token = any($1)`, pq.Array(tokens))
	if err != nil {
		return 0, fmt.Errorf("prune push tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune push tokens: %w", err)
	}
	return n, nil
}
