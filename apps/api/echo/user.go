package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/auth"
)

func registerAuthAPI(g *echo.Group, s *server) {
	ag := g.Group("/auth")
	ag.POST("/login", s.login)
	ag.POST("/register", s.register)
	ag.POST("/logout", s.logout)
	ag.GET("/me", s.me)
}

// loggedIn links the user of res to the visitor and answers with a token carrying it.
func (s *server) loggedIn(ctx echo.Context, code int, res auth.AuthResult, msg string) error {
	c := mustContextClient(ctx)
	if err := s.VisitorSvc.SetUser(ctx.Request().Context(), c.visitor.ID, &res.User.ID); err != nil {
		return errors.Wrap(err, "setting visitor user")
	}
	token, err := s.tokenFor(ctx, &res.User)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, sessionResponse{
		Token:    token,
		User:     res.User,
		Redirect: res.User.HomePath(),
		Message:  msg,
	})
}

func (s *server) login(ctx echo.Context) error {
	var data auth.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(s.Validate); err != nil {
		return err
	}

	// session errors carry the directory's message as is
	res, err := mustContextClient(ctx).session.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return s.loggedIn(ctx, http.StatusOK, res, "")
}

func (s *server) register(ctx echo.Context) error {
	var data auth.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(s.Validate); err != nil {
		return err
	}

	res, err := mustContextClient(ctx).session.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return s.loggedIn(ctx, http.StatusCreated, res, "")
}

func (s *server) logout(ctx echo.Context) error {
	c := mustContextClient(ctx)
	if err := c.session.Logout(); err != nil {
		return errors.Wrap(err, "logging out")
	}
	if err := s.VisitorSvc.SetUser(ctx.Request().Context(), c.visitor.ID, nil); err != nil {
		return errors.Wrap(err, "clearing visitor user")
	}
	token, err := s.tokenFor(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

// me refreshes the logged in user from the directory.
func (s *server) me(ctx echo.Context) error {
	usr, ok := mustContextClient(ctx).session.Load(ctx.Request().Context())
	if !ok {
		return auth.ErrNotAuthenticated
	}
	return ctx.JSON(http.StatusOK, usr)
}
