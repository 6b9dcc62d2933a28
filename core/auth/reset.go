package auth

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

// Step of the password reset flow.
type Step int

const (
	StepRequestOTP Step = iota + 1
	StepVerifyOTP
	StepSetPassword
	StepDone
)

const (
	// ResendCooldown is the delay before an OTP can be sent again.
	ResendCooldown = 30 * time.Second

	ResentMessage = "OTP resent successfully"
	ResetMessage  = "Password reset successfully"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrWrongStep     = errors.New("this step of the password reset is not available")
	ErrResendTooSoon = errors.New("please wait before requesting a new OTP")
)

type (
	// ResetState is the serialisable state of a password reset.
	ResetState struct {
		Step   Step      `json:"step"`
		Email  string    `json:"email,omitempty"`
		OTP    string    `json:"otp,omitempty"`
		SentAt time.Time `json:"sentAt"`
	}

	otpRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	otpCheck struct {
		OTP string `json:"otp" validate:"required,otp"`
	}

	// PasswordReset is the final request of the flow.
	PasswordReset struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,otp"`
		Password string `json:"password" validate:"required"`
	}
)

// ResendIn is how long until an OTP can be resent.
func (st ResetState) ResendIn() time.Duration {
	if st.SentAt.IsZero() {
		return 0
	}
	if d := st.SentAt.Add(ResendCooldown).Sub(NowFunc()); d > 0 {
		return d
	}
	return 0
}

// ResetFlow walks a client through RequestOTP -> VerifyOTP -> SetPassword.
// A failed call leaves the flow at its current step.
type ResetFlow struct {
	backend  Backend
	validate *validator.Validate
	state    ResetState
}

// NewResetFlow starts a flow, or resumes it from a saved state.
func NewResetFlow(backend Backend, validate *validator.Validate, state ...ResetState) *ResetFlow {
	f := &ResetFlow{backend: backend, validate: validate, state: ResetState{Step: StepRequestOTP}}
	if len(state) > 0 && state[0].Step >= StepRequestOTP && state[0].Step <= StepDone {
		f.state = state[0]
	}
	return f
}

func (f *ResetFlow) State() ResetState {
	return f.state
}

func (f *ResetFlow) expect(steps ...Step) error {
	for _, s := range steps {
		if f.state.Step == s {
			return nil
		}
	}
	return ErrWrongStep
}

// RequestOTP sends an OTP to email.
func (f *ResetFlow) RequestOTP(ctx context.Context, email string) (string, error) {
	if err := f.expect(StepRequestOTP); err != nil {
		return "", err
	}
	req := otpRequest{Email: core.CleanString(email, true /* lower */)}
	if err := f.validate.Struct(req); err != nil {
		return "", err
	}

	msg, err := f.backend.SendOTP(ctx, req.Email)
	if err != nil {
		return "", errors.Wrap(err, "sending OTP")
	}
	f.state = ResetState{Step: StepVerifyOTP, Email: req.Email, SentAt: NowFunc()}
	return msg, nil
}

// ResendOTP sends a new OTP to the same email once the cooldown is over.
func (f *ResetFlow) ResendOTP(ctx context.Context) (string, error) {
	if err := f.expect(StepVerifyOTP); err != nil {
		return "", err
	}
	if f.state.ResendIn() > 0 {
		return "", ErrResendTooSoon
	}

	if _, err := f.backend.SendOTP(ctx, f.state.Email); err != nil {
		return "", errors.Wrap(err, "resending OTP")
	}
	f.state.SentAt = NowFunc()
	return ResentMessage, nil
}

// ChangeEmail goes back to the first step, keeping the email as a suggestion.
func (f *ResetFlow) ChangeEmail() error {
	if err := f.expect(StepVerifyOTP, StepSetPassword); err != nil {
		return err
	}
	f.state = ResetState{Step: StepRequestOTP, Email: f.state.Email}
	return nil
}

func (f *ResetFlow) VerifyOTP(ctx context.Context, otp string) (string, error) {
	if err := f.expect(StepVerifyOTP); err != nil {
		return "", err
	}
	req := otpCheck{OTP: core.CleanString(otp)}
	if err := f.validate.Struct(req); err != nil {
		return "", err
	}

	msg, err := f.backend.VerifyOTP(ctx, f.state.Email, req.OTP)
	if err != nil {
		return "", errors.Wrap(err, "verifying OTP")
	}
	f.state.Step = StepSetPassword
	f.state.OTP = req.OTP
	return msg, nil
}

// SetPassword sets the new password. The returned AuthResult logs the user in.
func (f *ResetFlow) SetPassword(ctx context.Context, password string) (AuthResult, error) {
	if err := f.expect(StepSetPassword); err != nil {
		return AuthResult{}, err
	}
	req := PasswordReset{Email: f.state.Email, OTP: f.state.OTP, Password: password}
	if err := f.validate.Struct(req); err != nil {
		return AuthResult{}, err
	}

	res, err := f.backend.ResetPassword(ctx, req.Email, req.OTP, req.Password)
	if err != nil {
		return AuthResult{}, errors.Wrap(err, "resetting password")
	}
	f.state = ResetState{Step: StepDone, Email: f.state.Email}
	return res, nil
}
