package main

import (
	"context"
)

func (cli *commandLine) runLang(args []string) error {
	fs := cli.flagSet("lang")
	code := fs.String("set", "", "The language code to switch to (en, hi, mr).")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *code != "" {
		cli.tr.ChangeLanguage(context.Background(), *code)
	}

	current := cli.tr.Language()
	for _, l := range cli.tr.Supported() {
		marker := " "
		if l.Code == current {
			marker = "*"
		}
		cli.printf("%s %s  %s (%s)\n", marker, l.Code, l.Name, l.NativeName)
	}
	return nil
}
