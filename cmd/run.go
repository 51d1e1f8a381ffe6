package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/capture"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize faces in a stream of frames and track attendance",
	Long: `Pull frames from an image directory or an HTTP snapshot URL, recognize enrolled
people, and track attendance until the source ends or Ctrl+C is pressed.

Every processed frame is printed to the console and its people count appended
to the count log. On exit the attendance is appended to the attendance file
and, with DATABASE_URL set, stored as a new session.

Examples:
  face-attendance run --dir ./frames
  face-attendance run --url http://camera.local/snapshot.jpg --interval 200ms
  face-attendance run --dir ./frames --loop --annotate-dir ./annotated`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("dir", "", "Directory of frame images, read in name order")
	runCmd.Flags().String("url", "", "HTTP snapshot URL returning a JPEG/PNG frame")
	runCmd.Flags().Duration("interval", 100*time.Millisecond, "Delay between snapshot requests")
	runCmd.Flags().Bool("loop", false, "Restart from the first image when --dir is exhausted")
	runCmd.Flags().String("annotate-dir", "", "Write annotated frames to this directory")
	runCmd.Flags().Bool("quiet", false, "Do not print per-frame results")
	runCmd.Flags().Bool("export", true, "Append attendance to the attendance file on exit")
	runCmd.Flags().Bool("resume", false, "Seed attendance from the existing attendance file")
}

// openSource opens the frame source selected by --dir or --url.
func openSource(ctx context.Context, cmd *cobra.Command) (capture.Source, error) {
	dir := mustGetString(cmd, "dir")
	url := mustGetString(cmd, "url")

	switch {
	case dir != "" && url != "":
		return nil, errors.New("use either --dir or --url, not both")
	case dir != "":
		return capture.NewDirSource(dir, mustGetBool(cmd, "loop"))
	case url != "":
		return capture.NewSnapshotSource(ctx, url, mustGetDuration(cmd, "interval"))
	default:
		return nil, errors.New("a frame source is required: --dir or --url")
	}
}

// buildSinks creates the console and annotation sinks selected by flags.
func buildSinks(cmd *cobra.Command) ([]pipeline.Sink, error) {
	var sinks []pipeline.Sink
	if !mustGetBool(cmd, "quiet") {
		sinks = append(sinks, pipeline.NewConsoleSink(os.Stdout))
	}
	if dir := mustGetString(cmd, "annotate-dir"); dir != "" {
		annotate, err := pipeline.NewAnnotateSink(dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, annotate)
	}
	return sinks, nil
}

// startSession creates a database attendance session when PostgreSQL is configured.
func startSession(ctx context.Context, a *app, strategy string) (*postgres.AttendanceRepository, uuid.UUID) {
	if a.pool == nil {
		return nil, uuid.Nil
	}
	repo := postgres.NewAttendanceRepository(a.pool)
	session, err := repo.CreateSession(ctx, strategy, time.Now())
	if err != nil {
		fmt.Printf("Warning: attendance will not be stored in PostgreSQL: %v\n", err)
		return nil, uuid.Nil
	}
	fmt.Printf("Attendance session: %s\n", session)
	return repo, session
}

// saveAttendance appends records to the attendance file and the database session.
func saveAttendance(ctx context.Context, a *app, records []attendance.Record, export bool,
	repo *postgres.AttendanceRepository, session uuid.UUID) {
	if export {
		if err := attendance.ExportCSV(a.cfg.Storage.AttendancePath, records); err != nil {
			fmt.Printf("Warning: failed to export attendance: %v\n", err)
		} else {
			fmt.Printf("Attendance exported to %s (%d people)\n", a.cfg.Storage.AttendancePath, len(records))
		}
	}
	if repo != nil {
		if err := repo.SaveRecords(ctx, session, records); err != nil {
			fmt.Printf("Warning: failed to store attendance session: %v\n", err)
		}
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	src, err := openSource(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to open frame source: %w", err)
	}
	defer src.Close()

	sinks, err := buildSinks(cmd)
	if err != nil {
		return err
	}
	proc, err := a.processor(cmd, true, nil, sinks...)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "resume") {
		records, err := attendance.LoadCSV(a.cfg.Storage.AttendancePath)
		if err != nil {
			fmt.Printf("Warning: could not resume attendance: %v\n", err)
		} else {
			proc.Tracker().Seed(records)
			fmt.Printf("Resumed attendance of %d people\n", proc.Tracker().Len())
		}
	}

	a.checkDetector(ctx)
	repo, session := startSession(ctx, a, proc.Strategy().Name)

	fmt.Printf("Gallery: %d faces of %d people (%s)\n", a.gallery.Len(), len(a.gallery.Names()), a.backend())
	fmt.Printf("Strategy: %s (tolerance %.2f)\n", proc.Strategy().Name, proc.Strategy().Tolerance)
	fmt.Println("Press Ctrl+C to stop")

	start := time.Now()
	stats := proc.Run(ctx, src)

	// The run context is cancelled on Ctrl+C; saving must still go through.
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.gallery.Save(saveCtx); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	saveAttendance(saveCtx, a, proc.Tracker().Records(), mustGetBool(cmd, "export"), repo, session)

	fmt.Printf("\nFrames: %d, processed: %d, failed: %d in %s\n",
		stats.Frames, stats.Processed, stats.Failed, time.Since(start).Round(time.Millisecond))
	if c := proc.Counter(); c.Len() > 0 {
		fmt.Printf("People per frame: last %d, average %.2f\n", c.Last(), c.Average())
	}
	return nil
}
