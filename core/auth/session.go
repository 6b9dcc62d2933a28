package auth

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

// Storage keys of the session.
const (
	TokenKey = "token"
	UserKey  = "user"
)

var (
	// errors
	ErrBanned = errors.New("account banned")
)

// banned is implemented by backend errors that can flag a banned account.
type banned interface {
	IsBanned() bool
}

// Session is the authenticated state of one client: the bearer token and the
// cached user, kept in a core.KeyValueStore.
type Session struct {
	kv      core.KeyValueStore
	backend Backend
	logger  core.Logger
}

func NewSession(kv core.KeyValueStore, backend Backend, logger core.Logger) *Session {
	return &Session{kv: kv, backend: backend, logger: logger}
}

// Token returns the stored bearer token.
func (s *Session) Token() (string, bool) {
	token, ok, err := s.kv.Get(TokenKey)
	if err != nil {
		s.logger.Warn("auth: reading token", errors.Wrap(err, "reading "+TokenKey))
		return "", false
	}
	return token, ok && token != ""
}

// Current returns the cached user. ok is false without a token.
func (s *Session) Current() (usr User, ok bool) {
	if _, ok = s.Token(); !ok {
		return User{}, false
	}
	raw, found, err := s.kv.Get(UserKey)
	if err != nil || !found {
		return User{}, false
	}
	if err = json.Unmarshal([]byte(raw), &usr); err != nil || usr.ID == "" {
		return User{}, false
	}
	return usr, true
}

// Adopt stores the token and the user of res.
func (s *Session) Adopt(res AuthResult) error {
	if res.Token == "" {
		return errors.New("missing token")
	}
	data, err := json.Marshal(res.User)
	if err != nil {
		return errors.Wrap(err, "encoding user")
	}
	if err = s.kv.Set(TokenKey, res.Token); err != nil {
		return errors.Wrap(err, "storing token")
	}
	return errors.Wrap(s.kv.Set(UserKey, string(data)), "storing user")
}

func (s *Session) authenticated(res AuthResult, err error) (AuthResult, error) {
	if err != nil {
		if b, ok := errors.Cause(err).(banned); ok && b.IsBanned() {
			return AuthResult{}, errors.Wrap(ErrBanned, err.Error())
		}
		return AuthResult{}, err
	}
	if err = s.Adopt(res); err != nil {
		return AuthResult{}, err
	}
	return res, nil
}

func (s *Session) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	return s.authenticated(s.backend.Login(ctx, creds))
}

func (s *Session) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	return s.authenticated(s.backend.Register(ctx, reg))
}

// Logout forgets the token and the user.
func (s *Session) Logout() error {
	if err := s.kv.Remove(TokenKey); err != nil {
		return errors.Wrap(err, "removing token")
	}
	return errors.Wrap(s.kv.Remove(UserKey), "removing user")
}

// Load refreshes the cached user from the directory. Any failure drops the
// token, leaving the session logged out.
func (s *Session) Load(ctx context.Context) (User, bool) {
	if _, ok := s.Token(); !ok {
		return User{}, false
	}

	usr, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Warn("auth: failed to load user", errors.Wrap(err, "loading user"))
		if err = s.Logout(); err != nil {
			s.logger.Error("auth: clearing session", err)
		}
		return User{}, false
	}

	data, err := json.Marshal(usr)
	if err == nil {
		err = s.kv.Set(UserKey, string(data))
	}
	if err != nil {
		s.logger.Error("auth: caching user", errors.Wrap(err, "storing user"), usr)
	}
	return usr, true
}
