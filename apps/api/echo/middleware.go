package echoapi

import (
	"context"
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/services/directory"
)

const contextClientKey = "client"

var errClientNotFoundInCtx = errors.New("client not found in echo.Context")

// client is everything a request acts on: the visitor and its key-value namespace,
// holding the auth session and the comparison list.
type client struct {
	visitor visitor.Visitor
	kv      core.KeyValueStore
	dir     *directory.Client
	session *auth.Session

	newCompare func() *compare.Store
	compare    *compare.Store
}

func (c *client) compareStore() *compare.Store {
	if c.compare == nil {
		c.compare = c.newCompare()
	}
	return c.compare
}

func (s *server) newClient(ctx context.Context, vis visitor.Visitor) *client {
	kv := s.VisitorSvc.Storage(ctx, vis.ID)
	dir := s.Directory.WithStorage(kv).OnUnauthorized(func() {
		if err := s.VisitorSvc.SetUser(ctx, vis.ID, nil); err != nil {
			s.Logger.Error("clearing visitor user", errors.Wrap(err, "setting visitor user"))
		}
	})

	return &client{
		visitor: vis,
		kv:      kv,
		dir:     dir,
		session: auth.NewSession(kv, dir, s.Logger),
		newCompare: func() *compare.Store {
			store := compare.NewStore(kv, s.Logger)
			if s.Metrics != nil {
				store.Subscribe(s.Metrics.CompareListener())
			}
			return store
		},
	}
}

// visitorMiddleware loads the visitor the JWT was issued to.
func (s *server) visitorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}

		rctx := ctx.Request().Context()
		vis, err := s.VisitorSvc.Get(rctx, claims.Subject)
		if err != nil {
			switch errors.Cause(err) {
			case visitor.ErrNotFound:
				return errUnknownVisitor
			case sql.ErrConnDone:
				return core.NewShutdownError("visitor storage unavailable", err)
			}
			return errors.Wrap(err, "getting visitor")
		}
		if err = s.VisitorSvc.Touch(rctx, vis.ID); err != nil {
			return errors.Wrap(err, "touching visitor")
		}

		ctx.Set(contextClientKey, s.newClient(rctx, vis))
		return next(ctx)
	}
}

func getContextClient(ctx echo.Context) (*client, error) {
	if c, ok := ctx.Get(contextClientKey).(*client); ok {
		return c, nil
	}
	return nil, errClientNotFoundInCtx
}

// mustContextClient is for handlers mounted behind visitorMiddleware.
func mustContextClient(ctx echo.Context) *client {
	c, err := getContextClient(ctx)
	if err != nil {
		panic(err)
	}
	return c
}

// guardMiddleware only lets through logged in users with one of roles (any user if none).
func guardMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c, err := getContextClient(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context client")
			}
			usr, ok := c.session.Current()
			if dec := auth.Authorize(usr, ok, roles...); !dec.Allowed {
				return dec.Err
			}
			return next(ctx)
		}
	}
}
