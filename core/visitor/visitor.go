// Package visitor manages the anonymous clients of the API. Each visitor
// owns a key-value namespace holding its comparison list and auth session.
package visitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("visitor not found")
)

type (
	Visitor struct {
		ID         string    `json:"id"`
		UserID     *string   `json:"userId,omitempty"`
		CreatedAt  time.Time `json:"createdAt"`
		LastSeenAt time.Time `json:"lastSeenAt"`
	}

	Repository interface {
		CreateVisitor(ctx context.Context, vis Visitor) (Visitor, error)
		GetVisitor(ctx context.Context, id string) (Visitor, error)
		TouchVisitor(ctx context.Context, id string, at time.Time) error
		SetVisitorUser(ctx context.Context, id string, userID *string) error
		// PurgeVisitors deletes the visitors last seen before olderThan, with their items.
		PurgeVisitors(ctx context.Context, olderThan time.Time) (int64, error)
	}

	// ItemRepository hands out the key-value namespace of a visitor.
	// The returned store runs its queries with ctx.
	ItemRepository interface {
		Namespace(ctx context.Context, visitorID string) core.KeyValueStore
	}
)

type Service struct {
	repo  Repository
	items ItemRepository
}

func NewService(repo Repository, items ItemRepository) *Service {
	return &Service{repo: repo, items: items}
}

func (svc *Service) Create(ctx context.Context) (Visitor, error) {
	now := NowFunc().UTC()
	vis := Visitor{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	vis, err := svc.repo.CreateVisitor(ctx, vis)
	return vis, errors.Wrap(err, "creating visitor")
}

func (svc *Service) Get(ctx context.Context, id string) (Visitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Visitor{}, ErrNotFound
	}
	return svc.repo.GetVisitor(ctx, id)
}

// Touch records that the visitor was just seen.
func (svc *Service) Touch(ctx context.Context, id string) error {
	return svc.repo.TouchVisitor(ctx, id, NowFunc().UTC())
}

// SetUser links the visitor to the user it is logged in as; nil unlinks it.
func (svc *Service) SetUser(ctx context.Context, id string, userID *string) error {
	return svc.repo.SetVisitorUser(ctx, id, userID)
}

// Purge deletes the visitors not seen for longer than maxAge.
func (svc *Service) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, errors.New("max age must be positive")
	}
	return svc.repo.PurgeVisitors(ctx, NowFunc().UTC().Add(-maxAge))
}

// Storage returns the key-value namespace of the visitor.
func (svc *Service) Storage(ctx context.Context, id string) core.KeyValueStore {
	return svc.items.Namespace(ctx, id)
}
