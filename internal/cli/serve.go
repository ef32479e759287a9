package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/pacservice-go/internal/config"
	"github.com/John-Robertt/pacservice-go/internal/httpapi"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and PAC endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return f.Fail(err)
			}
			if listen != "" {
				cfg.Listen = listen
			}
			logger, closeLog, err := newLogger(cmd, cfg)
			if err != nil {
				return f.Fail(err)
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, logger, nil); err != nil {
				logger.Error("server stopped", "error", err)
				return WrapExitError(ExitCommandError, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address (overrides listen, PORT and PACSERVICE_LISTEN)")
	return cmd
}

// serve runs the API until ctx is done, then drains in-flight requests and
// queued mutations. ready, when set, receives the bound address.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, ready func(addr string)) error {
	lock, err := lockRegistry(cfg.DBFile)
	if err != nil {
		return err
	}
	defer lock.Release()

	st := openStore(cfg, logger)
	defer st.Close()
	if err := st.Load(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Handler: httpapi.NewHandler(st, httpapi.Options{
			BasicAuthUser: cfg.Auth.User,
			BasicAuthPass: cfg.Auth.Pass,
			Logger:        logger,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	logger.Info("listening", "addr", ln.Addr().String(), "db", st.Path(), "auth", cfg.Auth.Enabled())
	if ready != nil {
		ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown failed", "error", err)
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
