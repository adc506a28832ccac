package cli

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xtd/internal/db"
	"xtd/internal/logger"
	"xtd/internal/server"
)

const defaultPort = 8080

// NewServeCommand creates the serve command running the HTTP API.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schema inference over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port = cmp.Or(port, rootOpts.Config.Server.Port, defaultPort)
			srv := server.New(port, rootOpts.Config.Inference)

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening on %s", srv.Addr)
				logger.Info("registered dialects: %v", db.RegisteredDialects())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err, ok := <-errc:
				if ok {
					return WrapExitError(ExitOutput, "http server error", err)
				}
				return nil
			case <-quit:
			}

			logger.Info("shutting down server gracefully")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "http port (overrides config, default 8080)")
	return cmd
}
