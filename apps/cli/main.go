package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/credstore"
)

// credentialStore holds the session and the language preference.
type credentialStore interface {
	session.Store
	i18n.PreferenceStore
	Close() error
}

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	logger, err := logsvc.New(conf)
	if err != nil {
		log.Fatalf("setting up logger: %+v", err)
	}
	defer logger.Sync()

	store, err := openStore(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening credential store: %v", err), err)
	}

	cli, err := newCommandLine(conf, logger, store, os.Stdout)
	if err != nil {
		logger.Fatal(fmt.Sprintf("initializing: %v", err), err)
	}

	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error("closing credential store", cErr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func openStore(conf *core.Config, logger core.Logger) (credentialStore, error) {
	if conf.Store.Ephemeral {
		return credstore.NewMemory(), nil
	}
	return credstore.Open(context.Background(), conf.Store.Path, logger)
}

// newCommandLine wires the session, localization and API client around store,
// then restores the persisted session and language.
func newCommandLine(conf *core.Config, logger core.Logger, store credentialStore, out io.Writer) (*commandLine, error) {
	client, err := apiclient.New(conf.API, logger)
	if err != nil {
		return nil, err
	}
	mailer, err := emailsvc.New(conf, logger)
	if err != nil {
		return nil, errors.Wrap(err, "setting up email service")
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	sess := session.New(session.Deps{
		Store:      store,
		Auth:       client.Auth(),
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	tr := i18n.New(client.Messages(), store, logger)
	client.UseSession(sess)
	client.UseLanguage(tr)

	ctx := context.Background()
	sess.Restore(ctx)
	tr.UseDefault(conf.I18n.DefaultLanguage)
	tr.Initialize(ctx, os.Getenv("LC_ALL"), os.Getenv("LC_MESSAGES"), os.Getenv("LANG"))

	return &commandLine{
		conf:   conf,
		logger: logger,
		sess:   sess,
		tr:     tr,
		client: client,
		mailer: mailer,
		out:    out,
	}, nil
}
