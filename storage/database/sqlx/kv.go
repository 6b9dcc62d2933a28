package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/visitor"
)

type kvRepository struct {
	db core.DBExecutor
}

var _ visitor.ItemRepository = (*kvRepository)(nil)

func NewKVRepository(db core.DBExecutor) *kvRepository {
	return &kvRepository{db: db}
}

func (repo *kvRepository) Namespace(ctx context.Context, visitorID string) core.KeyValueStore {
	return &kvNamespace{ctx: ctx, db: repo.db, visitorID: visitorID}
}

// kvNamespace holds the items of one visitor.
type kvNamespace struct {
	ctx       context.Context
	db        core.DBExecutor
	visitorID string
}

var _ core.KeyValueStore = (*kvNamespace)(nil)

func (ns *kvNamespace) Get(key string) (string, bool, error) {
	var value string
	q := ns.db.Rebind("SELECT item_value FROM kv_item WHERE visitor_id = ? AND item_key = ?")
	if err := ns.db.GetContext(ns.ctx, &value, q, ns.visitorID, key); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "selecting item %q", key)
	}
	return value, true, nil
}

func (ns *kvNamespace) Set(key, value string) error {
	q := ns.db.Rebind(`
		INSERT INTO kv_item (visitor_id, item_key, item_value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id, item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at`,
	)
	if _, err := ns.db.ExecContext(ns.ctx, q, ns.visitorID, key, value, visitor.NowFunc().UTC()); err != nil {
		return errors.Wrapf(err, "upserting item %q", key)
	}
	return nil
}

func (ns *kvNamespace) Remove(key string) error {
	q := ns.db.Rebind("DELETE FROM kv_item WHERE visitor_id = ? AND item_key = ?")
	if _, err := ns.db.ExecContext(ns.ctx, q, ns.visitorID, key); err != nil {
		return errors.Wrapf(err, "deleting item %q", key)
	}
	return nil
}
