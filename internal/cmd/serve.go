package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tlsvhost/internal/config"
	"tlsvhost/internal/engine"
	"tlsvhost/internal/logger"
	"tlsvhost/internal/registry"
	"tlsvhost/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the TLS endpoint (default command)",
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, reg, err := loadRegistry()
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv := server.New(cfg.Server, reg, engine.NewFactory(reg, cfg.Policy()))

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	printUsageInfo(cfg, reg)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		reg.Shutdown()
		return err
	case <-sig:
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printUsageInfo(cfg *config.Config, reg *registry.Registry) {
	cyan := "\033[36m"
	green := "\033[32m"
	bold := "\033[1m"
	reset := "\033[0m"

	policy := cfg.Policy()
	fmt.Printf("\n%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", bold, cyan, reset)
	fmt.Printf(" %stlsvhost%s listening on %s%s:%d%s\n", bold, reset, green, cfg.Server.Address, cfg.Server.Port, reset)
	fmt.Printf("%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", cyan, reset)
	fmt.Printf(" Provider:      %s\n", cfg.Provider)
	fmt.Printf(" Client auth:   %s\n", policy.ClientAuth)
	fmt.Printf(" Cipher order:  server preferred = %v\n", policy.ServerCipherOrder)
	for _, e := range reg.Entries() {
		fmt.Printf("   - %s%s%s %v\n", green, e.Pattern(), reset, e.EnabledProtocols())
	}
	fmt.Printf("%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n\n", cyan, reset)
}
