package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/auth"
)

const jwtContextKey = "visitorToken"

var errMissingClaims = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the visitor; the user, if any, is the one logged in on that visitor.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	UserID       string `json:"uid,omitempty"`
	Role         string `json:"role,omitempty"`
}

func (s *server) newClaims(visitorID string, usr *auth.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.Conf.AppName,
			Subject:   visitorID,
			ExpiresAt: now.Add(s.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
	}
	if usr != nil {
		claims.UserID = usr.ID
		claims.Role = auth.NormalizeRole(usr.Role)
	}
	return claims
}

// generateToken generates a signed JWT token string representing the Claims.
func (s *server) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(s.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// tokenFor mints a token for the visitor of ctx, carrying usr if logged in.
func (s *server) tokenFor(ctx echo.Context, usr *auth.User) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	return s.generateToken(s.newClaims(claims.Subject, usr, claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errMissingClaims
}

func (s *server) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	c := mustContextClient(ctx)
	var usr *auth.User
	if u, ok := c.session.Current(); ok {
		usr = &u
	}
	token, err := s.generateToken(s.newClaims(claims.Subject, usr, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}
