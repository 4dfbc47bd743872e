package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp         = errors.New("help provided")
	errNotLoggedIn  = errors.New("not logged in")
	errAccessDenied = errors.New("access denied")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	sess   *session.Service
	tr     *i18n.Service
	client *apiclient.Client
	mailer core.EmailService
	out    io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) println(args ...interface{}) {
	fmt.Fprintln(cli.out, args...)
}

func (cli *commandLine) printUsage() {
	cli.println("Usage:")
	cli.println("  login -username USERNAME - sign in; the password will be prompted next")
	cli.println("  logout - sign out and forget the stored session")
	cli.println("  whoami - show the signed-in user")
	cli.println("  validate - check the stored token against the API")
	cli.println("  lang [-set CODE] - show or change the display language")
	cli.println("  register -username USERNAME -email EMAIL -fullname NAME [-role ROLE] - create an account (admin only)")
	cli.println("  export [-format csv|excel|pdf] [-start DATE] [-end DATE] [-out PATH] [-email ADDRESS] - download an attendance report")
	cli.println("  serve [-addr HOST:PORT] - serve the dashboard")
	cli.println("  demo-api [-addr HOST:PORT] - serve an in-memory attendance API with demo accounts")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.runLogin(args[2:])
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami()
	case "validate":
		return cli.validate()
	case "lang":
		return cli.runLang(args[2:])
	case "register":
		return cli.runRegister(args[2:])
	case "export":
		return cli.runExport(args[2:])
	case "serve":
		return cli.runServe(args[2:])
	case "demo-api":
		return cli.runDemoAPI(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword(fs *flag.FlagSet) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// parse maps -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// resultError turns a failed session.Result into an error.
func resultError(res session.Result) error {
	if res.Success {
		return nil
	}
	return errors.New(res.Error)
}
