package main

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

	"github.com/canonical/maubot-operator/pkg/actions"
	"github.com/canonical/maubot-operator/pkg/api"
	"github.com/canonical/maubot-operator/pkg/events"
	"github.com/canonical/maubot-operator/pkg/log"
	"github.com/canonical/maubot-operator/pkg/maubot"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/reconciler"
	"github.com/canonical/maubot-operator/pkg/relation"
	"github.com/canonical/maubot-operator/pkg/supervisor"
	"github.com/canonical/maubot-operator/pkg/types"
)

// DefaultListenAddr is where the operator API listens unless --listen
// says otherwise
const DefaultListenAddr = "unix:///run/maubot-operator.sock"

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the operator process",
	Long: `Run the operator process.

The operator connects to the workload container's supervisor socket,
serves the event and action API, and reconciles the workload whenever
the runtime delivers an event.`,
	RunE: runOperator,
}

func init() {
	runCmd.Flags().String("listen", DefaultListenAddr, "API address (unix:///path or host:port)")
	runCmd.Flags().String("supervisor-socket", supervisor.DefaultSocketPath, "Workload supervisor socket path")
	runCmd.Flags().String("workload-api", maubot.DefaultBaseURL, "Workload management API base URL")
	runCmd.Flags().String("admin-name", "root", "Admin account the operator authenticates as")
	runCmd.Flags().String("admin-password", "", "Password for the operator's admin account")
	runCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Bool("log-json", false, "Emit JSON logs instead of console output")

	rootCmd.AddCommand(runCmd)
}

func runOperator(cmd *cobra.Command, args []string) error {
	listenAddr, _ := cmd.Flags().GetString("listen")
	socketPath, _ := cmd.Flags().GetString("supervisor-socket")
	workloadAPI, _ := cmd.Flags().GetString("workload-api")
	adminName, _ := cmd.Flags().GetString("admin-name")
	adminPassword, _ := cmd.Flags().GetString("admin-password")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")

	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	metrics.SetVersion(Version)

	fmt.Println("Starting maubot operator...")
	fmt.Printf("  API Address: %s\n", listenAddr)
	fmt.Printf("  Supervisor Socket: %s\n", socketPath)
	fmt.Printf("  Workload API: %s\n", workloadAPI)
	fmt.Println()

	sup := supervisor.NewClient(socketPath)
	probeSupervisor(cmd.Context(), sup)

	tracker := reconciler.NewStatusTracker()
	rec := reconciler.New(sup, relation.NewReader(), tracker)

	reconcile := func(ctx context.Context, event events.Event) types.UnitStatus {
		status := rec.Reconcile(ctx, event.Snapshot)
		probeSupervisor(ctx, sup)
		return status
	}

	dispatcher := events.NewDispatcher()
	for _, kind := range events.Kinds() {
		dispatcher.Register(kind, reconcile)
	}
	metrics.UpdateComponent("dispatcher", true, "handlers registered")
	fmt.Println("✓ Dispatcher ready")

	workload := maubot.NewClient(workloadAPI)
	handler := actions.NewHandler(sup, workload, adminName, adminPassword)
	fmt.Println("✓ Action handler ready")

	// Start API server in background
	apiServer := api.NewServer(dispatcher, handler, tracker)
	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("API server error: %v", err)
		}
	}()

	fmt.Println("✓ API server started")
	fmt.Println()
	fmt.Println("Operator is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal or API server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}

	// Shutdown
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		return fmt.Errorf("failed to shutdown: %v", err)
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}

// probeSupervisor refreshes the supervisor health entry from one
// connectivity probe
func probeSupervisor(ctx context.Context, sup supervisor.Client) {
	if sup.CanConnect(ctx) {
		metrics.UpdateComponent("supervisor", true, "socket reachable")
	} else {
		metrics.UpdateComponent("supervisor", false, "container not ready")
	}
}
