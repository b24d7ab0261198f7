// Command invindex loads documents into an index, searches it and resets
// it.
package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/logger"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "invindex"
	app.HelpName = "invindex"
	app.Usage = "inverted index over JSON documents"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "path to a YAML config file"},
		cli.StringFlag{Name: "path, p", Usage: "index location (overrides the config)"},
		cli.StringFlag{Name: "backend, b", Usage: "file, memory, redis or postgres (overrides the config)"},
		cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides the config)"},
	}
	app.Commands = []cli.Command{
		loadCommand,
		searchCommand,
		statsCommand,
		resetCommand,
		publishCommand,
	}
	return app
}

// loadConfig resolves the configuration from the global flags and sets up
// logging on the app's error writer.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if v := c.GlobalString("path"); v != "" {
		cfg.Index.Path = v
	}
	if v := c.GlobalString("backend"); v != "" {
		cfg.Index.Backend = v
	}
	if v := c.GlobalString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, err.Error())
	}
	logger.SetupWriter(c.App.ErrWriter, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newAnalyzer(cfg *config.Config) *tokenizer.Analyzer {
	return tokenizer.NewAnalyzer(tokenizer.NewRegistry(), cfg.Analysis)
}
