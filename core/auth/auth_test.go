package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
)

var errUpstream = errors.New("upstream failure")

type bannedErr struct{ msg string }

func (e bannedErr) Error() string  { return e.msg }
func (e bannedErr) IsBanned() bool { return true }

// fakeBackend answers like the directory API would, from fields set by the tests.
type fakeBackend struct {
	result   AuthResult
	err      error
	otp      string
	sentTo   []string
	resetPwd string
}

var _ Backend = (*fakeBackend)(nil)

func (b *fakeBackend) Login(_ context.Context, creds Credentials) (AuthResult, error) {
	if b.err != nil {
		return AuthResult{}, b.err
	}
	return b.result, nil
}

func (b *fakeBackend) Register(_ context.Context, reg Registration) (AuthResult, error) {
	if b.err != nil {
		return AuthResult{}, b.err
	}
	return b.result, nil
}

func (b *fakeBackend) Me(ctx context.Context) (User, error) {
	if b.err != nil {
		return User{}, b.err
	}
	return b.result.User, nil
}

func (b *fakeBackend) SendOTP(_ context.Context, email string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.sentTo = append(b.sentTo, email)
	return "OTP sent to your email", nil
}

func (b *fakeBackend) VerifyOTP(_ context.Context, email, otp string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if otp != b.otp {
		return "", errors.New("invalid OTP")
	}
	return "OTP verified", nil
}

func (b *fakeBackend) ResetPassword(_ context.Context, email, otp, password string) (AuthResult, error) {
	if b.err != nil {
		return AuthResult{}, b.err
	}
	b.resetPwd = password
	return b.result, nil
}

func newValidate() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}
