package main

import (
	"fmt"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/infra"
	"retailworks/internal/middleware"
	"retailworks/internal/worker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ── migrate ───────────────────────────────────────────────────────────────────

func newMigrateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.database()
			if err != nil {
				return err
			}
			return infra.RunMigrations(db)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.database()
			if err != nil {
				return err
			}
			return infra.RollbackMigrations(db, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.database()
			if err != nil {
				return err
			}
			v, dirty, err := infra.MigrationVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
			return nil
		},
	})
	return cmd
}

// ── calendar ──────────────────────────────────────────────────────────────────

func newCalendarCmd(g *globals) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Generate the date dimension for a range and mark holidays",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDay("start", start)
			if err != nil {
				return err
			}
			to, err := parseDay("end", end)
			if err != nil {
				return err
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			n, holidays, err := c.Calendar.Build(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.CalendarResponse{RowsGenerated: n, HolidaysMarked: holidays})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// ── commission ────────────────────────────────────────────────────────────────

func newCommissionCmd(g *globals) *cobra.Command {
	var employee, start, end string
	var email bool
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Calculate a sales rep's commission for a pay period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(employee)
			if err != nil {
				return fmt.Errorf("--employee must be a uuid: %w", err)
			}
			from, err := parseDay("start", start)
			if err != nil {
				return err
			}
			to, err := parseDay("end", end)
			if err != nil {
				return err
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			resp, err := c.Commissions.Calculate(cmd.Context(), id, from, to)
			if err != nil {
				return err
			}
			if email {
				if _, err := c.Commissions.EmailStatement(cmd.Context(), uuid.MustParse(resp.ID)); err != nil {
					return fmt.Errorf("email statement: %w", err)
				}
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "sales rep id")
	cmd.Flags().StringVar(&start, "start", "", "pay period start, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "pay period end, YYYY-MM-DD")
	cmd.Flags().BoolVar(&email, "email", false, "queue the PDF statement to the rep")
	for _, f := range []string{"employee", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

// ── etl ───────────────────────────────────────────────────────────────────────

func newEtlCmd(g *globals) *cobra.Command {
	var start, end string
	var days, limit int
	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Run the nightly load: calendar, dimensions, facts, data quality",
		RunE: func(cmd *cobra.Command, _ []string) error {
			to := time.Now().UTC().AddDate(0, 0, -1)
			from := to.AddDate(0, 0, -(days - 1))
			var err error
			if start != "" {
				if from, err = parseDay("start", start); err != nil {
					return err
				}
			}
			if end != "" {
				if to, err = parseDay("end", end); err != nil {
					return err
				}
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			resp, err := c.Etl.Run(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first order date, YYYY-MM-DD (default: --days before yesterday)")
	cmd.Flags().StringVar(&end, "end", "", "last order date, YYYY-MM-DD (default: yesterday)")
	cmd.Flags().IntVar(&days, "days", 1, "window size when --start is omitted")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recent batch runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			resp, err := c.Etl.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	runs.Flags().IntVar(&limit, "limit", 20, "number of runs")
	cmd.AddCommand(runs)
	return cmd
}

// ── dq ────────────────────────────────────────────────────────────────────────

func newDQCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "dq", Short: "Data-quality checks and issues"}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run every check and reconcile stored issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			report, err := c.Quality.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	})

	var filter dto.QualityIssueFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			issues, err := c.Quality.ListIssues(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, issues)
		},
	}
	list.Flags().StringVar(&filter.Status, "status", "OPEN", "OPEN, RESOLVED or all")
	list.Flags().StringVar(&filter.Severity, "severity", "", "filter by severity")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <issue-id>",
		Short: "Mark an open issue resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("issue id must be a uuid: %w", err)
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			issue, err := c.Quality.Resolve(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, issue)
		},
	})
	return cmd
}

// ── reorder ───────────────────────────────────────────────────────────────────

func newReorderCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder-sweep",
		Short: "Re-signal every inventory record at or below its reorder point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			if c.Dispatcher == nil {
				return fmt.Errorf("reorder-sweep needs Redis")
			}
			n := worker.SweepReorders(cmd.Context(), c.ReorderSweep())
			fmt.Fprintf(cmd.OutOrStdout(), "%d reorder signals queued\n", n)
			return nil
		},
	}
}

// ── token ─────────────────────────────────────────────────────────────────────

func newTokenCmd(g *globals) *cobra.Command {
	var user, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token for local use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch role {
			case middleware.RoleOperator, middleware.RoleAnalyst, middleware.RoleAdmin:
			default:
				return fmt.Errorf("--role must be operator, analyst or admin")
			}
			if g.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			tok, err := middleware.IssueToken(g.cfg.JWTSecret, user, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "retailctl", "subject of the token")
	cmd.Flags().StringVar(&role, "role", middleware.RoleAnalyst, "operator, analyst or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
