package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/capture"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Face Attendance HTTP API for gallery management, recognition,
attendance, people counts and runtime settings.

With --dir or --url the recognition loop also runs in the background and its
frames are streamed to clients of /api/v1/events. Set API_TOKEN to require a
bearer token on every endpoint except /api/v1/health.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("dir", "", "Directory of frame images for the background loop")
	serveCmd.Flags().String("url", "", "HTTP snapshot URL for the background loop")
	serveCmd.Flags().Duration("interval", 100*time.Millisecond, "Delay between snapshot requests")
	serveCmd.Flags().Bool("loop", false, "Restart from the first image when --dir is exhausted")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// startBackgroundLoop runs the pipeline over src until ctx is done.
func startBackgroundLoop(ctx context.Context, proc *pipeline.Processor, src capture.Source) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Go(func() {
		defer src.Close()
		stats := proc.Run(ctx, src)
		fmt.Printf("Background loop stopped: %d frames, %d processed, %d failed\n",
			stats.Frames, stats.Processed, stats.Failed)
	})
	return &wg
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var mu sync.Mutex
	events := handlers.NewFrameEvents()
	background := mustGetString(cmd, "dir") != "" || mustGetString(cmd, "url") != ""

	// The background loop shares the handlers' mutex so frames and requests never interleave.
	proc, err := a.processor(cmd, background, &mu, events)
	if err != nil {
		return err
	}

	state := handlers.NewState(proc, &mu, a.cfg.Storage.AttendancePath)
	repo, session := startSession(ctx, a, proc.Strategy().Name)
	if repo != nil {
		state.UseStore(repo, session)
	}

	a.checkDetector(ctx)

	var loop *sync.WaitGroup
	if background {
		src, err := openSource(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to open frame source: %w", err)
		}
		loop = startBackgroundLoop(ctx, proc, src)
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(&a.cfg.Web, state, events, host, port)

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Gallery: %d faces of %d people (%s)\n", a.gallery.Len(), len(a.gallery.Names()), a.backend())
	fmt.Printf("Starting Face Attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	serveErr := server.Start()
	stop()
	if loop != nil {
		loop.Wait()
	}
	if serveErr != nil {
		return fmt.Errorf("starting server: %w", serveErr)
	}
	return nil
}
