package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/ehr/calendar/internal/config"
	"github.com/ehr/calendar/internal/domain/calendar"
	"github.com/ehr/calendar/internal/platform/db"
	"github.com/ehr/calendar/migrations"
)

func layoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute a calendar view from a JSON document of appointments and rules",
		Long: `Reads {"mode","date","now","filter","appointments","rules"} from the file
argument, or from stdin when it is omitted or "-", and prints the computed
view as JSON. No database or cache is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tz, _ := cmd.Flags().GetString("timezone")
			compact, _ := cmd.Flags().GetBool("compact")

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runLayout(in, cmd.OutOrStdout(), tz, !compact)
		},
	}
	cmd.Flags().String("timezone", "UTC", "Zone used for \"now\" when the document omits it")
	cmd.Flags().Bool("compact", false, "Print JSON on a single line")
	return cmd
}

func runLayout(in io.Reader, out io.Writer, tz string, indent bool) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", tz, err)
	}

	var req calendar.ComputeRequest
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("decode layout request: %w", err)
	}
	if err := req.Normalize(loc); err != nil {
		return err
	}

	view, err := calendar.Compute(req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(view)
}

func gridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "grid slots|week|month",
		Short:     "Print the slot table or the week/month date grid for a date",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"slots", "week", "month"},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			date := civil.DateOf(time.Now())
			if raw != "" {
				d, err := parseDate(raw)
				if err != nil {
					return err
				}
				date = d
			}
			return runGrid(cmd.OutOrStdout(), args[0], date)
		},
	}
	cmd.Flags().String("date", "", "Reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func parseDate(raw string) (calendar.CalendarDate, error) {
	d, err := civil.ParseDate(raw)
	if err != nil {
		return d, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

func runGrid(out io.Writer, kind string, date calendar.CalendarDate) error {
	switch kind {
	case "slots":
		for _, s := range calendar.DaySlots() {
			fmt.Fprintln(out, s.Label)
		}
	case "week":
		for _, d := range calendar.WeekOf(date) {
			fmt.Fprintf(out, "%s %s\n", d.In(time.UTC).Weekday().String()[:3], d)
		}
	case "month":
		fmt.Fprintln(out, "Mon        Tue        Wed        Thu        Fri        Sat        Sun")
		for _, week := range calendar.MonthWeeks(date) {
			cells := make([]string, len(week))
			for i, d := range week {
				cells[i] = d.String()
			}
			fmt.Fprintln(out, strings.Join(cells, " "))
		}
	default:
		return fmt.Errorf("unknown grid %q", kind)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the development schema for appointment and working_hours",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, db.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: 2,
		TimeZone: cfg.TimeZone,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func printStatus(out io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
