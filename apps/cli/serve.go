package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	webapp "github.com/trezcool/mahudhurio/apps/web"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/services/apiclient/apitest"
)

var (
	startServerFunc = startServer // mockable
	runDemoAPIFunc  = runDemoAPI  // mockable
)

func (cli *commandLine) runServe(args []string) error {
	fs := cli.flagSet("serve")
	addr := fs.String("addr", cli.conf.Web.Address, "The address to listen on.")
	if err := parse(fs, args); err != nil {
		return err
	}

	srv, err := webapp.NewServer(webapp.Options{
		Address:        *addr,
		Debug:          cli.conf.Debug,
		TestMode:       cli.conf.TestMode,
		DisableReqLogs: cli.conf.Web.DisableReqLogs,
	}, webapp.Deps{
		Session: cli.sess,
		I18n:    cli.tr,
		Client:  cli.client,
		Mailer:  cli.mailer,
		Logger:  cli.logger,
	})
	if err != nil {
		return err
	}
	cli.printf("Serving the dashboard on http://%s (API %s)\n", *addr, cli.client.BaseURL())
	return startServerFunc(srv, cli.logger, cli.conf.Web.ShutdownTimeout)
}

type server interface {
	Start() error
	Stop(ctx context.Context) error
}

// startServer runs srv until it fails or the process is told to stop, then shuts it down gracefully.
func startServer(srv server, logger core.Logger, timeout time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
		logger.Info(fmt.Sprintf("%v: Completed shutdown", sig))
	}
	return nil
}

func (cli *commandLine) runDemoAPI(args []string) error {
	fs := cli.flagSet("demo-api")
	addr := fs.String("addr", "127.0.0.1:8080", "The address to listen on.")
	if err := parse(fs, args); err != nil {
		return err
	}

	cli.printf("Serving the demo API on http://%s/api\n", *addr)
	for _, acc := range apitest.SeedAccounts {
		cli.printf("  %-8s %s / %s\n", acc.Role.Name(), acc.Username, apitest.Password(acc.Username))
	}
	return runDemoAPIFunc(*addr)
}

func runDemoAPI(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return apitest.NewServer().Start(ctx, addr)
}
