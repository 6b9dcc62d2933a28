package directory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/auth"
)

func authResult(env envelope) (auth.AuthResult, error) {
	res := auth.AuthResult{Token: env.Token}
	switch {
	case env.User != nil:
		res.User = *env.User
	case len(env.Data) > 0:
		if err := decodeData(env, &res.User); err != nil {
			return auth.AuthResult{}, err
		}
	}
	if res.Token == "" {
		return auth.AuthResult{}, errors.New("missing token in response")
	}
	return res, nil
}

func (c *Client) Login(ctx context.Context, creds auth.Credentials) (auth.AuthResult, error) {
	env, err := c.post(ctx, "/auth/login", creds)
	if err != nil {
		return auth.AuthResult{}, err
	}
	return authResult(env)
}

func (c *Client) Register(ctx context.Context, reg auth.Registration) (auth.AuthResult, error) {
	env, err := c.post(ctx, "/auth/register", reg)
	if err != nil {
		return auth.AuthResult{}, err
	}
	return authResult(env)
}

func (c *Client) Me(ctx context.Context) (auth.User, error) {
	env, err := c.get(ctx, "/auth/me", nil)
	if err != nil {
		return auth.User{}, err
	}
	var usr auth.User
	if err = decodeData(env, &usr); err != nil {
		return auth.User{}, err
	}
	return usr, nil
}

func (c *Client) SendOTP(ctx context.Context, email string) (string, error) {
	env, err := c.post(ctx, "/auth/send-otp", map[string]string{"email": email})
	return env.Message, err
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	env, err := c.post(ctx, "/auth/verify-otp", map[string]string{"email": email, "otp": otp})
	return env.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, password string) (auth.AuthResult, error) {
	env, err := c.post(ctx, "/auth/reset-password", map[string]string{"email": email, "otp": otp, "password": password})
	if err != nil {
		return auth.AuthResult{}, err
	}
	return authResult(env)
}
