package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/services/directory"
)

// resetStateKey holds the password reset in progress, so it can be resumed.
const resetStateKey = "passwordReset"

func (cli *commandLine) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = cli.prompt("Email"); err != nil {
					return err
				}
			}
			pwd, err := cli.promptPassword("Password")
			if err != nil {
				return err
			}

			creds := auth.Credentials{Email: email, Password: pwd}
			if err = creds.Validate(cli.validate); err != nil {
				return err
			}
			res, err := cli.session.Login(context.Background(), creds)
			if err != nil {
				return err
			}
			cli.loggedIn(res.User, "")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (cli *commandLine) loggedIn(usr auth.User, msg string) {
	if msg != "" {
		cli.printf("%s\n", msg)
	}
	cli.printf("Logged in as %s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
	cli.printf("Home: %s\n", usr.HomePath())
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.session.Logout(); err != nil {
				return err
			}
			cli.printf("Logged out\n")
			return nil
		},
	}
}

func (cli *commandLine) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usr, ok := cli.session.Load(context.Background())
			if !ok {
				cli.printf("Not logged in\n")
				return nil
			}
			tw := cli.table()
			fmt.Fprintf(tw, "Name\t%s\n", usr.Name)
			fmt.Fprintf(tw, "Email\t%s\n", usr.Email)
			fmt.Fprintf(tw, "Role\t%s\n", usr.Role)
			return tw.Flush()
		},
	}
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a forgotten password with a one-time password sent by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.resetPassword(context.Background(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (cli *commandLine) loadResetFlow() *auth.ResetFlow {
	raw, ok, err := cli.kv.Get(resetStateKey)
	if err != nil {
		cli.logger.Warn("reading password reset state", errors.Wrap(err, "reading "+resetStateKey))
		ok = false
	}
	if !ok {
		return auth.NewResetFlow(cli.dir, cli.validate)
	}

	var st auth.ResetState
	if err = json.Unmarshal([]byte(raw), &st); err != nil || st.Step == auth.StepDone {
		return auth.NewResetFlow(cli.dir, cli.validate)
	}
	return auth.NewResetFlow(cli.dir, cli.validate, st)
}

func (cli *commandLine) saveResetFlow(flow *auth.ResetFlow) error {
	data, err := json.Marshal(flow.State())
	if err != nil {
		return errors.Wrap(err, "encoding reset state")
	}
	return errors.Wrap(cli.kv.Set(resetStateKey, string(data)), "storing reset state")
}

// retryable tells whether the user can fix err by answering again.
func retryable(err error) bool {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors, *directory.APIError:
		return true
	default:
		return origErr == auth.ErrResendTooSoon
	}
}

// resetPassword walks the user through the reset flow, resuming any reset in progress.
func (cli *commandLine) resetPassword(ctx context.Context, email string) error {
	flow := cli.loadResetFlow()
	for {
		var (
			msg string
			err error
		)

		st := flow.State()
		switch st.Step {
		case auth.StepRequestOTP:
			if email == "" {
				if email, err = cli.prompt("Email"); err != nil {
					return err
				}
			}
			msg, err = flow.RequestOTP(ctx, email)
			email = ""

		case auth.StepVerifyOTP:
			var answer string
			answer, err = cli.prompt("OTP sent to " + st.Email + " (or: resend, change-email)")
			if err != nil {
				return err
			}
			switch answer {
			case "resend":
				msg, err = flow.ResendOTP(ctx)
				if err == auth.ErrResendTooSoon {
					err = errors.Wrapf(err, "retry in %.0fs", st.ResendIn().Seconds())
				}
			case "change-email":
				err = flow.ChangeEmail()
			default:
				msg, err = flow.VerifyOTP(ctx, answer)
			}

		case auth.StepSetPassword:
			var pwd string
			if pwd, err = cli.promptPassword("New password"); err != nil {
				return err
			}
			var res auth.AuthResult
			if res, err = flow.SetPassword(ctx, pwd); err == nil {
				if err = cli.kv.Remove(resetStateKey); err != nil {
					cli.logger.Warn("removing password reset state", errors.Wrap(err, "removing "+resetStateKey))
				}
				if err = cli.session.Adopt(res); err != nil {
					return errors.Wrap(err, "adopting session")
				}
				cli.loggedIn(res.User, auth.ResetMessage)
				return nil
			}

		default:
			return auth.ErrWrongStep
		}

		if err != nil {
			if !retryable(err) {
				return err
			}
			cli.printf("%s\n", cli.describe(err))
			continue
		}
		if msg != "" {
			cli.printf("%s\n", msg)
		}
		if err = cli.saveResetFlow(flow); err != nil {
			return err
		}
	}
}
