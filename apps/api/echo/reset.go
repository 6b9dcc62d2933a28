package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/auth"
)

// resetStateKey holds the visitor's password reset in progress.
const resetStateKey = "passwordReset"

func registerPasswordResetAPI(g *echo.Group, s *server) {
	rg := g.Group("/auth/password-reset")
	rg.GET("", s.getPasswordReset)
	rg.DELETE("", s.cancelPasswordReset)
	rg.POST("/otp", s.requestOTP)
	rg.POST("/resend", s.resendOTP)
	rg.POST("/change-email", s.changeResetEmail)
	rg.POST("/verify", s.verifyOTP)
	rg.POST("/confirm", s.confirmPasswordReset)
}

func (s *server) loadResetFlow(c *client) *auth.ResetFlow {
	raw, ok, err := c.kv.Get(resetStateKey)
	if err != nil {
		s.Logger.Warn("reading password reset state", errors.Wrap(err, "reading "+resetStateKey))
		ok = false
	}
	if !ok {
		return auth.NewResetFlow(c.dir, s.Validate)
	}

	var st auth.ResetState
	if err = json.Unmarshal([]byte(raw), &st); err != nil {
		s.Logger.Warn("discarding malformed password reset state", errors.Wrap(err, "decoding "+resetStateKey))
		return auth.NewResetFlow(c.dir, s.Validate)
	}
	return auth.NewResetFlow(c.dir, s.Validate, st)
}

func saveResetFlow(c *client, flow *auth.ResetFlow) error {
	data, err := json.Marshal(flow.State())
	if err != nil {
		return errors.Wrap(err, "encoding reset state")
	}
	return errors.Wrap(c.kv.Set(resetStateKey, string(data)), "storing reset state")
}

// resetStep runs one step of the flow and saves the new state.
func (s *server) resetStep(ctx echo.Context, step func(*auth.ResetFlow) (string, error)) error {
	c := mustContextClient(ctx)
	flow := s.loadResetFlow(c)
	msg, err := step(flow)
	if err != nil {
		return err
	}
	if err = saveResetFlow(c, flow); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newResetResponse(flow.State(), msg))
}

func (s *server) getPasswordReset(ctx echo.Context) error {
	flow := s.loadResetFlow(mustContextClient(ctx))
	return ctx.JSON(http.StatusOK, newResetResponse(flow.State(), ""))
}

func (s *server) cancelPasswordReset(ctx echo.Context) error {
	if err := mustContextClient(ctx).kv.Remove(resetStateKey); err != nil {
		return errors.Wrap(err, "removing reset state")
	}
	return ctx.JSON(http.StatusOK, newResetResponse(auth.ResetState{Step: auth.StepRequestOTP}, ""))
}

func (s *server) requestOTP(ctx echo.Context) error {
	var data struct {
		Email string `json:"email"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to otp request")
	}
	return s.resetStep(ctx, func(flow *auth.ResetFlow) (string, error) {
		return flow.RequestOTP(ctx.Request().Context(), data.Email)
	})
}

func (s *server) resendOTP(ctx echo.Context) error {
	return s.resetStep(ctx, func(flow *auth.ResetFlow) (string, error) {
		return flow.ResendOTP(ctx.Request().Context())
	})
}

func (s *server) changeResetEmail(ctx echo.Context) error {
	return s.resetStep(ctx, func(flow *auth.ResetFlow) (string, error) {
		return "", flow.ChangeEmail()
	})
}

func (s *server) verifyOTP(ctx echo.Context) error {
	var data struct {
		OTP string `json:"otp"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to otp check")
	}
	return s.resetStep(ctx, func(flow *auth.ResetFlow) (string, error) {
		return flow.VerifyOTP(ctx.Request().Context(), data.OTP)
	})
}

// confirmPasswordReset sets the new password and logs the user in.
func (s *server) confirmPasswordReset(ctx echo.Context) error {
	var data struct {
		Password string `json:"password"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to password reset")
	}

	c := mustContextClient(ctx)
	flow := s.loadResetFlow(c)
	res, err := flow.SetPassword(ctx.Request().Context(), data.Password)
	if err != nil {
		return err
	}
	if err = c.kv.Remove(resetStateKey); err != nil {
		s.Logger.Warn("removing password reset state", errors.Wrap(err, "removing "+resetStateKey))
	}
	if err = c.session.Adopt(res); err != nil {
		return errors.Wrap(err, "adopting session")
	}
	return s.loggedIn(ctx, http.StatusOK, res, auth.ResetMessage)
}
