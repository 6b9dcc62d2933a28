package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/visitor"
)

type visitorRepository struct {
	db *visitorTable
}

var _ visitor.Repository = (*visitorRepository)(nil)

func NewVisitorRepository(db *DB) *visitorRepository {
	return &visitorRepository{db: db.visitor}
}

func copyStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (repo *visitorRepository) CreateVisitor(_ context.Context, vis visitor.Visitor) (visitor.Visitor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vis.UserID = copyStrPtr(vis.UserID)
	repo.db.table[vis.ID] = &vis
	return vis, nil
}

func (repo *visitorRepository) GetVisitor(_ context.Context, id string) (visitor.Visitor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if vis, ok := repo.db.table[id]; ok {
		v := *vis
		v.UserID = copyStrPtr(vis.UserID)
		return v, nil
	}
	return visitor.Visitor{}, visitor.ErrNotFound
}

func (repo *visitorRepository) TouchVisitor(_ context.Context, id string, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vis, ok := repo.db.table[id]
	if !ok {
		return visitor.ErrNotFound
	}
	vis.LastSeenAt = at.UTC()
	return nil
}

func (repo *visitorRepository) SetVisitorUser(_ context.Context, id string, userID *string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vis, ok := repo.db.table[id]
	if !ok {
		return visitor.ErrNotFound
	}
	vis.UserID = copyStrPtr(userID)
	return nil
}

func (repo *visitorRepository) PurgeVisitors(_ context.Context, olderThan time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, vis := range repo.db.table {
		if vis.LastSeenAt.Before(olderThan) {
			delete(repo.db.table, id)
			delete(repo.db.items, id)
			n++
		}
	}
	return n, nil
}

type kvRepository struct {
	db *visitorTable
}

var _ visitor.ItemRepository = (*kvRepository)(nil)

func NewKVRepository(db *DB) *kvRepository {
	return &kvRepository{db: db.visitor}
}

func (repo *kvRepository) Namespace(_ context.Context, visitorID string) core.KeyValueStore {
	return &kvNamespace{db: repo.db, visitorID: visitorID}
}

type kvNamespace struct {
	db        *visitorTable
	visitorID string
}

func (ns *kvNamespace) Get(key string) (string, bool, error) {
	ns.db.mutex.RLock()
	defer ns.db.mutex.RUnlock()

	v, ok := ns.db.items[ns.visitorID][key]
	return v, ok, nil
}

func (ns *kvNamespace) Set(key, value string) error {
	ns.db.mutex.Lock()
	defer ns.db.mutex.Unlock()

	items, ok := ns.db.items[ns.visitorID]
	if !ok {
		items = make(map[string]string)
		ns.db.items[ns.visitorID] = items
	}
	items[key] = value
	return nil
}

func (ns *kvNamespace) Remove(key string) error {
	ns.db.mutex.Lock()
	defer ns.db.mutex.Unlock()

	delete(ns.db.items[ns.visitorID], key)
	return nil
}
