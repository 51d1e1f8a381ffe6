package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Show and export recorded attendance",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records",
	Long: `List attendance records from the attendance file, or with --db from a
PostgreSQL session (the latest one unless --session is given).`,
	RunE: runAttendanceList,
}

var attendanceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a PostgreSQL attendance session as CSV",
	Long: `Write the records of a PostgreSQL attendance session as name,first_seen,last_seen
CSV rows. Rows are appended to --out, or written to stdout without it.`,
	RunE: runAttendanceExport,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceExportCmd)

	attendanceListCmd.Flags().Bool("db", false, "Read from PostgreSQL instead of the attendance file")
	attendanceListCmd.Flags().String("session", "", "Session ID (defaults to the latest session)")
	attendanceListCmd.Flags().StringSlice("name", nil, "Only show these people")
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")

	attendanceExportCmd.Flags().String("session", "", "Session ID (defaults to the latest session)")
	attendanceExportCmd.Flags().String("out", "", "Append to this CSV file instead of stdout")
}

// resolveSession parses --session or falls back to the latest session.
func resolveSession(ctx context.Context, repo *postgres.AttendanceRepository, raw string) (uuid.UUID, error) {
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid session ID: %w", err)
		}
		return id, nil
	}
	latest, err := repo.LatestSession(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if latest == nil {
		return uuid.Nil, errors.New("no attendance sessions stored")
	}
	fmt.Fprintf(os.Stderr, "Session %s (%s, started %s, %d people)\n",
		latest.ID, latest.Strategy, latest.StartedAt.Local().Format(time.DateTime), latest.Records)
	return latest.ID, nil
}

// sessionRecords loads the records of a database session, optionally filtered by names.
func sessionRecords(ctx context.Context, a *app, rawSession string, names []string) ([]attendance.Record, error) {
	if a.pool == nil {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	repo := postgres.NewAttendanceRepository(a.pool)
	session, err := resolveSession(ctx, repo, rawSession)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return repo.ListByNames(ctx, session, names)
	}
	return repo.List(ctx, session)
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	names := mustGetStringSlice(cmd, "name")

	var records []attendance.Record
	if mustGetBool(cmd, "db") {
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if records, err = sessionRecords(ctx, a, mustGetString(cmd, "session"), names); err != nil {
			return err
		}
	} else {
		cfg := config.Load()
		loaded, err := attendance.LoadCSV(cfg.Storage.AttendancePath)
		if err != nil {
			return err
		}
		// The file is append-only; merge repeated exports into one record per name.
		tracker := attendance.NewTracker()
		tracker.Seed(loaded)
		records = tracker.Records()
		if len(names) > 0 {
			records = slices.DeleteFunc(records, func(r attendance.Record) bool {
				return !slices.Contains(names, r.Name)
			})
		}
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(records)
	}
	if len(records) == 0 {
		fmt.Println("No attendance recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFIRST SEEN\tLAST SEEN\tPRESENT")
	fmt.Fprintln(w, "----\t----------\t---------\t-------")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name,
			r.FirstSeen.Local().Format(time.DateTime), r.LastSeen.Local().Format(time.DateTime),
			r.LastSeen.Sub(r.FirstSeen).Round(time.Second))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d people\n", len(records))
	return nil
}

func runAttendanceExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := sessionRecords(ctx, a, mustGetString(cmd, "session"), nil)
	if err != nil {
		return err
	}

	out := mustGetString(cmd, "out")
	if out == "" {
		return attendance.WriteCSV(os.Stdout, records)
	}
	if err := attendance.ExportCSV(out, records); err != nil {
		return err
	}
	fmt.Printf("Exported %d records to %s\n", len(records), out)
	return nil
}
