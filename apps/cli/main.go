package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	logsvc "github.com/trezcool/schoolhub/services/logger"
)

func main() {
	conf := core.NewConfig()

	var logOut io.Writer = io.Discard
	if conf.Debug {
		logOut = os.Stderr
	}
	logger := logsvc.NewRollbarLogger(log.New(logOut, "", 0), conf)
	logger.Enable(false) // local tool: nothing is reported

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)

	cli := newCommandLine(conf, logger, validate, translator, os.Stdin, os.Stdout)
	if err := cli.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", cli.describe(err))
		os.Exit(1)
	}
}
