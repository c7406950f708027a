package cmd

import (
	"fmt"
	"github.com/cottand/fql/internal/log"
	"github.com/spf13/cobra"
	"log/slog"
)

const defaultLogLevel = slog.LevelError

var CheckCmd = &cobra.Command{
	Use:          "check ./folder",
	Short:        "Type-check every package under a folder",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var checkFlags databaseFlags

func init() {
	checkFlags = addDatabaseFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*checkFlags.logLevel))

	db, err := checkFlags.loadDatabase(args[0])
	if err != nil {
		return fmt.Errorf("could not load packages: %w", err)
	}
	packages := db.Packages()
	for _, p := range packages {
		// only checked for its side effect: every failing package is
		// registered, and the failures are reported from db.Errors below
		_, _, _ = db.SemanticPackage(p)
	}

	errs := db.Errors()
	for _, e := range errs {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "package %s:\n%s\n", e.Path, e.Err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d packages have errors", len(errs), len(packages))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checked %d packages\n", len(packages))
	return nil
}
