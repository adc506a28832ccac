// Package cli implements the xtd command line: schema inference from an XML
// document plus the apply, verify and serve subcommands.
package cli

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"xtd/internal/emit"
	"xtd/internal/infer"
	"xtd/internal/logger"
	"xtd/pkg/config"
)

// RootOptions holds global flags for all commands and the configuration
// resolved from them.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Input      string
	Output     string
	LogLevel   string
	LogFormat  string

	noAttributes     bool
	noDisambiguation bool
	relations        bool
	etc              int
	isValid          string
	header           string
	format           string
	dialect          string

	// Config is the file configuration with flag and environment overrides applied.
	Config config.AppConfig
}

// NewRootCommand creates the root command for the xtd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xtd",
		Short: "xtd - XML to DDL",
		Long: "Infers a relational schema from an XML document: one table per element tag, " +
			"one column per attribute and one foreign key per contained tag.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, opts)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "path to config YAML")
	pf.StringVar(&opts.EnvFile, "env-file", ".env", "optional .env file with XTD_DB_TYPE / XTD_DB_DSN")
	pf.StringVarP(&opts.Input, "input", "i", "-", "XML document to read (- for stdin)")
	pf.StringVarP(&opts.Output, "output", "o", "-", "file to write (- for stdout)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	pf.BoolVarP(&opts.noAttributes, "no-attributes", "a", false, "do not generate columns from attributes")
	pf.BoolVarP(&opts.noDisambiguation, "no-disambiguation", "b", false, "keep repeated foreign keys unsplit")
	pf.IntVar(&opts.etc, "etc", 0, "invert foreign keys occurring more than n times")
	pf.StringVar(&opts.header, "header", "", "comment line written before the output")
	pf.StringVar(&opts.format, "format", "ddl", "output format (ddl|json)")
	pf.StringVar(&opts.dialect, "dialect", "", "render DDL for a database (sqlite|postgres|mysql|sqlserver|godror)")

	f := cmd.Flags()
	f.BoolVarP(&opts.relations, "relations", "g", false, "write the relation report instead of the DDL")
	f.StringVar(&opts.isValid, "isvalid", "", "check that another document fits the inferred schema")

	// Add subcommands
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// resolve loads the config file and applies environment and flag overrides.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormat(o.LogFormat)
	if err := logger.SetLevel(o.LogLevel); err != nil {
		return WrapExitError(ExitOptions, "invalid log level", err)
	}

	var cfg config.AppConfig
	if o.ConfigPath != "" {
		c, err := config.LoadFile(o.ConfigPath)
		var pathErr *fs.PathError
		switch {
		case errors.As(err, &pathErr):
			return WrapExitError(ExitInput, "cannot open config", err)
		case err != nil:
			return WrapExitError(ExitOptions, "invalid config", err)
		}
		logger.Info("config file %s", o.ConfigPath)
		cfg = c
	}

	db, err := config.LoadEnv(cfg.Database, o.EnvFile)
	if err != nil {
		return WrapExitError(ExitOptions, "invalid env file", err)
	}
	cfg.Database = db

	// allow CLI overrides
	f := cmd.Flags()
	inf := &cfg.Inference
	if f.Changed("no-attributes") {
		inf.NoAttributes = o.noAttributes
	}
	if f.Changed("no-disambiguation") {
		inf.NoDisambiguation = o.noDisambiguation
	}
	if f.Changed("relations") {
		inf.Relations = o.relations
	}
	if f.Changed("etc") {
		etc := o.etc
		inf.Etc = &etc
	}
	if f.Changed("isvalid") {
		inf.IsValid = o.isValid
	}
	if f.Changed("header") {
		inf.Header = o.header
	}
	if f.Changed("format") || inf.Format == "" {
		inf.Format = o.format
	}
	if f.Changed("dialect") {
		inf.Dialect = o.dialect
	}
	if err := inf.Validate(); err != nil {
		return WrapExitError(ExitOptions, "invalid options", err)
	}

	o.Config = cfg
	return nil
}

// openInput returns the input document; the caller closes it.
func (o *RootOptions) openInput(cmd *cobra.Command) (io.ReadCloser, error) {
	if o.Input == "" || o.Input == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(o.Input)
	if err != nil {
		return nil, WrapExitError(ExitInput, "cannot open input", err)
	}
	return f, nil
}

// writeOutput writes rendered output in one go, so nothing is written when
// an earlier step failed.
func (o *RootOptions) writeOutput(cmd *cobra.Command, data []byte) error {
	if o.Output == "" || o.Output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	f, err := os.Create(o.Output)
	if err != nil {
		return WrapExitError(ExitOutput, "cannot open output", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return WrapExitError(ExitOutput, "cannot write output", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitOutput, "cannot write output", err)
	}
	return nil
}

// inferInput runs the inference pipeline on the input document.
func (o *RootOptions) inferInput(cmd *cobra.Command) (*infer.Result, error) {
	in, err := o.openInput(cmd)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	res, err := infer.Run(in, infer.OptionsFrom(o.Config.Inference))
	if err != nil {
		return nil, classify(err)
	}
	logger.Info("inferred %d tables", res.Registry.Len())
	return res, nil
}

func runInfer(cmd *cobra.Command, opts *RootOptions) error {
	res, err := opts.inferInput(cmd)
	if err != nil {
		return err
	}
	inf := opts.Config.Inference
	s := res.Schema()

	var buf bytes.Buffer
	switch {
	case inf.Format == "json":
		err = emit.JSON(&buf, s)
	case inf.Relations:
		err = emit.Relations(&buf, s, inf.Header)
	case inf.Dialect != "":
		err = emit.DialectDDL(&buf, s, inf.Dialect, inf.Header)
	default:
		err = emit.DDL(&buf, s, inf.Header)
	}
	if err != nil {
		return err
	}
	return opts.writeOutput(cmd, buf.Bytes())
}
