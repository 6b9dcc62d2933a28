package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/visitor"
)

type visitorRow struct {
	ID         string      `db:"id"`
	UserID     null.String `db:"user_id"`
	CreatedAt  time.Time   `db:"created_at"`
	LastSeenAt time.Time   `db:"last_seen_at"`
}

func newVisitorRow(vis visitor.Visitor) visitorRow {
	return visitorRow{
		ID:         vis.ID,
		UserID:     null.StringFromPtr(vis.UserID),
		CreatedAt:  vis.CreatedAt.UTC(),
		LastSeenAt: vis.LastSeenAt.UTC(),
	}
}

func (row visitorRow) toVisitor() visitor.Visitor {
	return visitor.Visitor{
		ID:         row.ID,
		UserID:     row.UserID.Ptr(),
		CreatedAt:  row.CreatedAt.UTC(),
		LastSeenAt: row.LastSeenAt.UTC(),
	}
}

type visitorRepository struct {
	db core.DB
}

var _ visitor.Repository = (*visitorRepository)(nil)

func NewVisitorRepository(db core.DB) *visitorRepository {
	return &visitorRepository{db: db}
}

func (repo *visitorRepository) CreateVisitor(ctx context.Context, vis visitor.Visitor) (visitor.Visitor, error) {
	row := newVisitorRow(vis)
	q := repo.db.Rebind("INSERT INTO visitor (id, user_id, created_at, last_seen_at) VALUES (?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, row.ID, row.UserID, row.CreatedAt, row.LastSeenAt); err != nil {
		return visitor.Visitor{}, errors.Wrap(err, "inserting visitor")
	}
	return row.toVisitor(), nil
}

func (repo *visitorRepository) GetVisitor(ctx context.Context, id string) (visitor.Visitor, error) {
	var row visitorRow
	q := repo.db.Rebind("SELECT id, user_id, created_at, last_seen_at FROM visitor WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return visitor.Visitor{}, visitor.ErrNotFound
		}
		return visitor.Visitor{}, errors.Wrap(err, "selecting visitor")
	}
	return row.toVisitor(), nil
}

func (repo *visitorRepository) update(ctx context.Context, query string, args ...interface{}) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "updating visitor")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating visitor")
	}
	if n == 0 {
		return visitor.ErrNotFound
	}
	return nil
}

func (repo *visitorRepository) TouchVisitor(ctx context.Context, id string, at time.Time) error {
	return repo.update(ctx, "UPDATE visitor SET last_seen_at = ? WHERE id = ?", at.UTC(), id)
}

func (repo *visitorRepository) SetVisitorUser(ctx context.Context, id string, userID *string) error {
	return repo.update(ctx, "UPDATE visitor SET user_id = ? WHERE id = ?", null.StringFromPtr(userID), id)
}

func (repo *visitorRepository) PurgeVisitors(ctx context.Context, olderThan time.Time) (n int64, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	olderThan = olderThan.UTC()
	q := tx.Rebind("DELETE FROM kv_item WHERE visitor_id IN (SELECT id FROM visitor WHERE last_seen_at < ?)")
	if _, err = tx.ExecContext(ctx, q, olderThan); err != nil {
		return 0, errors.Wrap(err, "deleting visitor items")
	}

	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM visitor WHERE last_seen_at < ?"), olderThan)
	if err != nil {
		return 0, errors.Wrap(err, "deleting visitors")
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, errors.Wrap(err, "deleting visitors")
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing transaction")
	}
	return n, nil
}
