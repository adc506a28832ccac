package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xtd/internal/db"
	"xtd/internal/infer"
	"xtd/internal/introspect"
	"xtd/internal/xmltree"
)

// NewVerifyCommand creates the verify command: the input document must fit
// into the schema of an existing database.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	dbFlags := &databaseFlags{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a document against the schema of a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, dsn, err := dbFlags.resolve(rootOpts.Config.Database)
			if err != nil {
				return err
			}
			s, err := db.ConnectAndExtract(driver, dsn, dbFlags.timeout)
			if err != nil {
				return WrapExitError(ExitInput, "cannot read database schema", err)
			}

			in, err := rootOpts.openInput(cmd)
			if err != nil {
				return err
			}
			defer in.Close()
			root, err := xmltree.Parse(in)
			if err != nil {
				return classify(err)
			}

			reference := introspect.ToRegistry(s)
			if err := infer.CheckAgainst(root, reference, infer.OptionsFrom(rootOpts.Config.Inference)); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s fits the %s schema (%d tables)\n", rootOpts.Input, driver, reference.Len())
			return nil
		},
	}
	dbFlags.register(cmd)
	return cmd
}
