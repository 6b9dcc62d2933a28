package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"syscall"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/services/directory"
	"github.com/trezcool/schoolhub/storage/kv/file"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	stdinFd          = int(syscall.Stdin)
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	in         *bufio.Reader
	out        io.Writer

	apiURL  string
	dataDir string

	// set up before every command
	kv      core.KeyValueStore
	dir     *directory.Client
	session *auth.Session
	store   *compare.Store
}

func newCommandLine(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	in io.Reader,
	out io.Writer,
) *commandLine {
	return &commandLine{
		conf:       conf,
		logger:     logger,
		validate:   validate,
		translator: translator,
		in:         bufio.NewReader(in),
		out:        out,
	}
}

func (cli *commandLine) run(args []string) error {
	root := &cobra.Command{
		Use:           "schoolhub",
		Short:         "Find and compare schools from your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.setup()
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.SetArgs(args)

	root.PersistentFlags().StringVar(&cli.apiURL, "api-url", cli.conf.Directory.BaseURL, "base URL of the directory API")
	root.PersistentFlags().StringVar(&cli.dataDir, "data-dir", cli.conf.CLI.DataDir, "where the session and the comparison list are kept")

	root.AddCommand(
		cli.schoolsCmd(),
		cli.compareCmd(),
		cli.loginCmd(),
		cli.logoutCmd(),
		cli.whoamiCmd(),
		cli.resetPasswordCmd(),
		cli.openCmd(),
	)
	return root.Execute()
}

func (cli *commandLine) setup() error {
	kv, err := filekv.New(cli.dataDir)
	if err != nil {
		return err
	}
	dirConf := cli.conf.Directory
	dirConf.BaseURL = cli.apiURL

	cli.kv = kv
	cli.dir = directory.New(dirConf, cli.logger).WithStorage(kv)
	cli.session = auth.NewSession(kv, cli.dir, cli.logger)
	cli.store = compare.NewStore(kv, cli.logger)
	return nil
}

// describe renders err for the terminal.
func (cli *commandLine) describe(err error) string {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(origErr))
		for _, vErr := range origErr {
			msgs = append(msgs, vErr.Field()+": "+vErr.Translate(cli.translator))
		}
		return strings.Join(msgs, "; ")
	case *directory.APIError:
		if origErr.Field != "" {
			return origErr.Field + ": " + origErr.Error()
		}
		return origErr.Error()
	default:
		if origErr == directory.ErrUnauthorized {
			return origErr.Error() + " (schoolhub login)"
		}
		return err.Error()
	}
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
}

// prompt reads one line of input.
func (cli *commandLine) prompt(label string) (string, error) {
	cli.printf("%s: ", label)
	line, err := cli.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

func (cli *commandLine) promptPassword(label string) (string, error) {
	cli.printf("%s: ", label)
	pwd, err := readPasswordFunc(stdinFd)
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}
