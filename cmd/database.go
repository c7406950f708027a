package cmd

import (
	"fmt"
	"github.com/cottand/fql/frontend/graph"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
)

type databaseFlags struct {
	config    *string
	noPrelude *bool
	logLevel  *int
}

func addDatabaseFlags(cmd *cobra.Command) databaseFlags {
	return databaseFlags{
		config:    cmd.Flags().StringP("config", "c", "", "settings file (YAML)"),
		noPrelude: cmd.Flags().Bool("no-prelude", false, "do not inject the prelude into packages"),
		logLevel:  cmd.Flags().IntP("log-level", "l", int(defaultLogLevel), "log level"),
	}
}

// loadDatabase loads every .fql file under dir into a new Database
func (f databaseFlags) loadDatabase(dir string) (*graph.Database, error) {
	settings := graph.DefaultSettings()
	if *f.config != "" {
		loaded, err := graph.LoadSettings(*f.config)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if *f.noPrelude {
		settings.DisablePrelude = true
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		settings.PrettyErrors = true
	}

	target, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("could not stat target: %w", err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return graph.New(settings, graph.WithSources(os.DirFS(target)))
}
