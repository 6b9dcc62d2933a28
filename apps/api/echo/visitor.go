package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// createVisitor starts an anonymous visitor and hands out its token.
func (s *server) createVisitor(ctx echo.Context) error {
	vis, err := s.VisitorSvc.Create(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "creating visitor")
	}
	token, err := s.generateToken(s.newClaims(vis.ID, nil))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, tokenResponse{Token: token})
}
