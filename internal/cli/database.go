package cli

import (
	"github.com/spf13/cobra"

	"xtd/pkg/config"
)

// databaseFlags selects the database of apply and verify.
type databaseFlags struct {
	driver  string
	dsn     string
	timeout int
}

func (d *databaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.driver, "driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	cmd.Flags().StringVar(&d.dsn, "dsn", "", "dsn override")
	cmd.Flags().IntVar(&d.timeout, "timeout", 10, "db connect timeout seconds")
}

// resolve returns the driver and DSN: both flags win over the configuration,
// otherwise the DSN is built from the database section.
func (d *databaseFlags) resolve(cfg config.DBConfig) (string, string, error) {
	if d.driver != "" && d.dsn != "" {
		return config.NormalizeDriver(d.driver), d.dsn, nil
	}
	if d.driver != "" {
		cfg.Type = d.driver
	}
	if d.dsn != "" {
		cfg.DSN = d.dsn
	}
	if cfg.Type == "" {
		return "", "", NewExitError(ExitOptions, "no database configured; use --driver and --dsn")
	}
	driver, dsn, err := config.BuildDriverAndDSN(cfg)
	if err != nil {
		return "", "", WrapExitError(ExitOptions, "invalid database configuration", err)
	}
	return driver, dsn, nil
}
