package cmd

import (
	"fmt"
	"github.com/cottand/fql/fql"
	"github.com/cottand/fql/frontend/types/wire"
	"github.com/cottand/fql/internal/log"
	"github.com/spf13/cobra"
	"log/slog"
)

var TypesCmd = &cobra.Command{
	Use:          "types ./folder package",
	Short:        "Show the types of the exports of a package",
	RunE:         runTypes,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
}

var (
	typesFlags databaseFlags
	binary     *bool
)

func init() {
	typesFlags = addDatabaseFlags(TypesCmd)
	binary = TypesCmd.Flags().BoolP("binary", "b", false, "write the types in the wire format")
}

func runTypes(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*typesFlags.logLevel))

	db, err := typesFlags.loadDatabase(args[0])
	if err != nil {
		return fmt.Errorf("could not load packages: %w", err)
	}
	if !db.HasPackage(args[1]) {
		return fmt.Errorf("no package %s under %s", args[1], args[0])
	}
	exports, _, err := db.SemanticPackage(args[1])
	if err != nil {
		return fmt.Errorf("package %s has errors:\n%w", args[1], err)
	}

	if !*binary {
		_, err = fmt.Fprint(cmd.OutOrStdout(), fql.DisplayTypes(exports))
		return err
	}
	encoded, err := wire.EncodeEnv(fql.Bindings(exports))
	if err != nil {
		return fmt.Errorf("could not encode types: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(encoded)
	return err
}
