package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"xtd/internal/db"
	"xtd/internal/emit"
	"xtd/internal/logger"
)

// NewApplyCommand creates the apply command: the inferred tables are created
// in a live database and the schema read back from it is printed as JSON.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	dbFlags := &databaseFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the inferred tables in a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, dsn, err := dbFlags.resolve(rootOpts.Config.Database)
			if err != nil {
				return err
			}
			res, err := rootOpts.inferInput(cmd)
			if err != nil {
				return err
			}
			created, err := db.ConnectApplyAndExtract(driver, dsn, dbFlags.timeout, res.Schema())
			if err != nil {
				return WrapExitError(ExitOutput, "cannot apply schema", err)
			}
			logger.Info("created %d tables in %s database", len(created.Tables), driver)

			var buf bytes.Buffer
			if err := emit.JSON(&buf, created); err != nil {
				return err
			}
			return rootOpts.writeOutput(cmd, buf.Bytes())
		},
	}
	dbFlags.register(cmd)
	return cmd
}
