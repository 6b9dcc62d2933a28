package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/services/directory"
	"github.com/trezcool/schoolhub/services/directory/directorytest"
	"github.com/trezcool/schoolhub/storage/kv/file"
	"github.com/trezcool/schoolhub/tests"
)

const password = "Tr1cky-Pass"

var (
	asha  = auth.User{ID: "u1", Name: "Asha", Email: "asha@test.in", Role: auth.RoleUser}
	ravi  = auth.User{ID: "u2", Name: "Ravi", Email: "ravi@test.in", Role: auth.RoleSchoolAdmin}
	meera = auth.User{ID: "u3", Name: "Meera", Email: "meera@test.in", Role: "superadmin"}
)

type testEnv struct {
	conf       *core.Config
	upstream   *directorytest.Server
	validate   *validator.Validate
	translator ut.Translator
	logger     *testutil.Logger
}

func setup(t *testing.T) *testEnv {
	upstream := directorytest.NewServer()
	t.Cleanup(upstream.Close)

	upstream.AddUser(asha, password)
	upstream.AddUser(ravi, password)
	upstream.AddUser(meera, password)
	upstream.AddSchool(map[string]interface{}{
		"_id": "s1", "slug": "dps-pune", "name": "DPS Pune", "city": "Pune", "board": "CBSE",
		"ratingAverage": 4.5, "minFee": 120000, "maxFee": 180000, "admin": ravi.ID,
	})
	upstream.AddSchool(map[string]interface{}{"_id": "s2", "slug": "little-stars", "name": "Little Stars", "city": "Pune", "board": "ICSE"})
	upstream.AddSchool(map[string]interface{}{"_id": "s3", "slug": "oak-ridge", "name": "Oak Ridge", "city": "Hyderabad", "board": "IB"})
	upstream.AddSchool(map[string]interface{}{"_id": "s4", "slug": "green-valley", "name": "Green Valley", "city": "Mumbai"})
	upstream.AddSchool(map[string]interface{}{"_id": "s5", "slug": "sunrise", "name": "Sunrise", "city": "Mumbai"})
	upstream.AddPendingSchool(map[string]interface{}{"_id": "p1", "slug": "new-school", "name": "New School"})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)

	return &testEnv{
		conf: &core.Config{
			Directory: core.DirectoryConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second},
			CLI:       core.CLIConfig{DataDir: t.TempDir()},
		},
		upstream:   upstream,
		validate:   validate,
		translator: translator,
		logger:     new(testutil.Logger),
	}
}

// mockPasswords makes the password prompt answer pwds, in order.
func mockPasswords(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, errors.New("no more passwords")
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

// run executes one command line, the way a fresh process would.
func (env *testEnv) run(input string, args ...string) (*commandLine, string, error) {
	if args == nil {
		args = []string{} // a nil slice makes cobra fall back to os.Args
	}
	out := new(bytes.Buffer)
	cli := newCommandLine(env.conf, env.logger, env.validate, env.translator, strings.NewReader(input), out)
	err := cli.run(args)
	return cli, out.String(), err
}

func (env *testEnv) mustRun(t *testing.T, input string, args ...string) string {
	_, out, err := env.run(input, args...)
	require.NoError(t, err)
	return out
}

func (env *testEnv) login(t *testing.T, usr auth.User) {
	mockPasswords(t, password)
	env.mustRun(t, "", "login", "--email", usr.Email)
}

func (env *testEnv) kv(t *testing.T) *filekv.Store {
	kv, err := filekv.New(env.conf.CLI.DataDir)
	require.NoError(t, err)
	return kv
}

func Test_commandLine_help(t *testing.T) {
	env := setup(t)

	out := env.mustRun(t, "")
	for _, cmd := range []string{"schools", "compare", "login", "logout", "whoami", "reset-password", "open"} {
		assert.Contains(t, out, cmd)
	}

	_, _, err := env.run("", "lol")
	if assert.Error(t, err) {
		assert.Equal(t, `unknown command "lol" for "schoolhub"`, err.Error())
	}
}

func Test_commandLine_schools(t *testing.T) {
	env := setup(t)

	t.Run("search", func(t *testing.T) {
		out := env.mustRun(t, "", "schools", "search")
		assert.Contains(t, out, "DPS Pune")
		assert.Contains(t, out, "₹120,000 - ₹180,000")
		assert.Contains(t, out, "5 school(s) found")

		out = env.mustRun(t, "", "schools", "search", "--city", "hyderabad")
		assert.Contains(t, out, "Oak Ridge")
		assert.NotContains(t, out, "DPS Pune")
		assert.Contains(t, out, "1 school(s) found")
	})

	t.Run("invalid filters", func(t *testing.T) {
		cli, _, err := env.run("", "schools", "search", "--sort", "name", "--min-fee", "20", "--max-fee", "10")
		require.Error(t, err)
		assert.IsType(t, validator.ValidationErrors{}, errors.Cause(err))
		msg := cli.describe(err)
		assert.Contains(t, msg, "maxFee: ")
		assert.Contains(t, msg, "sort: ")
	})

	t.Run("show", func(t *testing.T) {
		out := env.mustRun(t, "", "schools", "show", "dps-pune")
		assert.Contains(t, out, "DPS Pune")
		assert.Contains(t, out, "CBSE")
		assert.Contains(t, out, "4.5")
		assert.Contains(t, out, "Similar schools: Little Stars (little-stars)")
	})

	t.Run("show unknown", func(t *testing.T) {
		cli, _, err := env.run("", "schools", "show", "nope")
		require.Error(t, err)
		apiErr, ok := errors.Cause(err).(*directory.APIError)
		require.True(t, ok)
		assert.Equal(t, 404, apiErr.Status)
		assert.Equal(t, "School not found", cli.describe(err))
	})
}

func Test_commandLine_compare(t *testing.T) {
	env := setup(t)

	assert.Contains(t, env.mustRun(t, "", "compare", "list"), "No schools to compare yet.")
	assert.Contains(t, env.mustRun(t, "", "compare", "add", "dps-pune"), "Comparing DPS Pune (1/4)")
	assert.Contains(t, env.mustRun(t, "", "compare", "add", "dps-pune"), "Comparing DPS Pune (1/4)")
	for _, slug := range []string{"little-stars", "oak-ridge", "green-valley"} {
		env.mustRun(t, "", "compare", "add", slug)
	}

	t.Run("limit", func(t *testing.T) {
		_, _, err := env.run("", "compare", "add", "sunrise")
		assert.Equal(t, compare.ErrLimitReached, errors.Cause(err))
	})

	t.Run("list", func(t *testing.T) {
		out := env.mustRun(t, "", "compare", "list")
		for _, name := range []string{"DPS Pune", "Little Stars", "Oak Ridge", "Green Valley"} {
			assert.Contains(t, out, name)
		}
		assert.NotContains(t, out, "Sunrise")
		assert.Contains(t, out, "(4/4)")
	})

	t.Run("table", func(t *testing.T) {
		out := env.mustRun(t, "", "compare", "table")
		for _, label := range []string{compare.RowRating, compare.RowBoard, compare.RowAnnualFee, compare.RowFacilities} {
			assert.Contains(t, out, label)
		}
		assert.Contains(t, out, "ICSE")
		assert.Contains(t, out, "N/A")
	})

	t.Run("remove", func(t *testing.T) {
		assert.Contains(t, env.mustRun(t, "", "compare", "remove", "s2"), "Removed (3/4)")
		assert.Contains(t, env.mustRun(t, "", "compare", "remove", "s2"), "Removed (3/4)")
		assert.NotContains(t, env.mustRun(t, "", "compare", "list"), "Little Stars")
	})

	t.Run("clear", func(t *testing.T) {
		assert.Contains(t, env.mustRun(t, "", "compare", "clear"), "Comparison cleared")
		assert.Contains(t, env.mustRun(t, "", "compare", "table"), "No schools to compare yet.")
	})

	t.Run("malformed storage", func(t *testing.T) {
		require.NoError(t, env.kv(t).Set(compare.StorageKey, "{lol"))
		assert.Contains(t, env.mustRun(t, "", "compare", "list"), "No schools to compare yet.")
	})
}

func Test_commandLine_session(t *testing.T) {
	env := setup(t)

	t.Run("logged out", func(t *testing.T) {
		assert.Contains(t, env.mustRun(t, "", "whoami"), "Not logged in")
		assert.Contains(t, env.mustRun(t, "", "open", "/dashboard"), "user not authenticated: redirecting to /login")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockPasswords(t, "wrong")
		cli, _, err := env.run("", "login", "--email", asha.Email)
		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", cli.describe(err))
	})

	t.Run("missing email", func(t *testing.T) {
		mockPasswords(t, password)
		cli, _, err := env.run("\n", "login")
		require.Error(t, err)
		assert.Equal(t, "email: this field is required", cli.describe(err))
	})

	t.Run("banned", func(t *testing.T) {
		banned := auth.User{ID: "u9", Name: "Vik", Email: "vik@test.in", Role: auth.RoleUser}
		env.upstream.AddUser(banned, password)
		env.upstream.Ban(banned.Email)

		mockPasswords(t, password)
		_, _, err := env.run("", "login", "--email", banned.Email)
		assert.Equal(t, auth.ErrBanned, errors.Cause(err))
	})

	t.Run("login with prompt", func(t *testing.T) {
		mockPasswords(t, password)
		out := env.mustRun(t, "ASHA@test.in\n", "login")
		assert.Contains(t, out, "Logged in as Asha <asha@test.in> (user)")
		assert.Contains(t, out, "Home: /dashboard")

		out = env.mustRun(t, "", "whoami")
		assert.Contains(t, out, "Asha")
		assert.Contains(t, out, asha.Email)
	})

	t.Run("pages", func(t *testing.T) {
		assert.Contains(t, env.mustRun(t, "", "open", "/dashboard"), "dashboard (/dashboard)")
		assert.Contains(t, env.mustRun(t, "", "open", "/admin"), "permission denied: redirecting to /dashboard")
		assert.Contains(t, env.mustRun(t, "", "open", "/schools/dps-pune?tab=fees"), "school (/schools/:slug)")

		_, _, err := env.run("", "open", "/nope")
		assert.Equal(t, auth.ErrRouteNotFound, err)
	})

	t.Run("logout", func(t *testing.T) {
		assert.Contains(t, env.mustRun(t, "", "logout"), "Logged out")
		assert.Contains(t, env.mustRun(t, "", "whoami"), "Not logged in")
	})

	t.Run("expired token", func(t *testing.T) {
		require.NoError(t, env.kv(t).Set(auth.TokenKey, "bogus"))
		assert.Contains(t, env.mustRun(t, "", "whoami"), "Not logged in")
		_, ok, err := env.kv(t).Get(auth.TokenKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func Test_commandLine_adminPages(t *testing.T) {
	env := setup(t)

	env.login(t, ravi)
	out := env.mustRun(t, "", "open", "/admin")
	assert.Contains(t, out, "DPS Pune")
	assert.Contains(t, out, "1 school(s)")

	env.login(t, meera)
	out = env.mustRun(t, "", "open", "/superadmin")
	assert.Contains(t, out, "New School")
	assert.Contains(t, env.mustRun(t, "", "open", "/admin"), "permission denied")
}

func Test_commandLine_resetPassword(t *testing.T) {
	env := setup(t)
	const newPassword = "Brand-New-Pass1"

	t.Run("full flow", func(t *testing.T) {
		mockPasswords(t, "abc", newPassword)
		input := strings.Join([]string{"nobody@test.in", asha.Email, "12", "resend", "9999", directorytest.OTP}, "\n") + "\n"

		out := env.mustRun(t, input, "reset-password")
		assert.Contains(t, out, "There is no user with that email")
		assert.Contains(t, out, "OTP sent to your email")
		assert.Contains(t, out, "please enter a valid 4-digit OTP")
		assert.Contains(t, out, "please wait before requesting a new OTP")
		assert.Contains(t, out, "Invalid or expired OTP")
		assert.Contains(t, out, "OTP verified")
		assert.Contains(t, out, "password must be at least 6 characters")
		assert.Contains(t, out, auth.ResetMessage)
		assert.Contains(t, out, "Logged in as Asha")

		_, ok, err := env.kv(t).Get(resetStateKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("login with new password", func(t *testing.T) {
		env.mustRun(t, "", "logout")
		mockPasswords(t, newPassword)
		assert.Contains(t, env.mustRun(t, "", "login", "--email", asha.Email), "Logged in as Asha")
	})

	t.Run("resume", func(t *testing.T) {
		_, out, err := env.run("", "reset-password", "--email", ravi.Email)
		require.Error(t, err)
		assert.Contains(t, out, "OTP sent to your email")

		mockPasswords(t, newPassword)
		out = env.mustRun(t, directorytest.OTP+"\n", "reset-password")
		assert.Contains(t, out, "OTP sent to "+ravi.Email)
		assert.Contains(t, out, "Logged in as Ravi")
	})

	t.Run("change email", func(t *testing.T) {
		mockPasswords(t, newPassword)
		input := strings.Join([]string{asha.Email, "change-email", meera.Email, directorytest.OTP}, "\n") + "\n"

		out := env.mustRun(t, input, "reset-password")
		assert.Contains(t, out, "OTP sent to "+meera.Email)
		assert.Contains(t, out, "Logged in as Meera")
		assert.Contains(t, out, "Home: /superadmin")
	})
}
