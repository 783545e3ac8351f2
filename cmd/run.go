package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proximity-cli/internal/server"
)

var runPort int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the proximity engine with the runtime API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Engine.Start(ctx); err != nil {
			return err
		}
		defer env.Engine.Stop()

		port := runPort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.New(env.Engine).Handler(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down runtime API")
			_ = srv.Shutdown(cmd.Context())
		}()

		zap.L().Info("runtime API listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "runtime API listen")
		}

		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runPort, "port", 0, "runtime API port (default from config)")
	rootCmd.AddCommand(runCmd)
}
