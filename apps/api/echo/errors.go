package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/school"
	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/services/directory"
)

var (
	errUnknownVisitor = echo.NewHTTPError(http.StatusUnauthorized, "unknown visitor")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errMissingPath    = echo.NewHTTPError(http.StatusBadRequest, "path is required")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.ShutdownError is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *directory.APIError:
			code = origErr.Status
			if origErr.Field != "" {
				message = map[string]string{origErr.Field: origErr.Error()}
			} else {
				message = origErr.Error()
			}
		default:
			switch origErr {
			case directory.ErrUnauthorized, auth.ErrNotAuthenticated:
				code = http.StatusUnauthorized
				message = echo.Map{"error": origErr.Error(), "redirect": auth.PathLogin}
			case auth.ErrForbidden:
				code = http.StatusForbidden
				message = echo.Map{"error": origErr.Error(), "redirect": auth.PathDashboard}
			case auth.ErrBanned:
				code = http.StatusForbidden
				message = echo.Map{"error": err.Error(), "banned": true}
			case auth.ErrRouteNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			case compare.ErrLimitReached, auth.ErrWrongStep:
				code = http.StatusConflict
				message = origErr.Error()
			case auth.ErrResendTooSoon:
				code = http.StatusTooManyRequests
				message = origErr.Error()
			case school.ErrMissingID:
				code = http.StatusBadRequest
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var (
					usr auth.User
					vis visitor.Visitor
				)
				if c, cErr := getContextClient(ctx); cErr == nil {
					usr, _ = c.session.Current()
					vis = c.visitor
				}
				logger.Error(msg, errors.Wrap(err, msg), usr, vis)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
