package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/handler"
	"github.com/Aashish23092/payslip-ledger/repository"
	"github.com/gin-gonic/gin"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}
			defer app.Close()

			if cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := handler.NewRouter(
				handler.NewPaySlipHandler(app.paySlips, cfg.Server.MaxFileSize),
				handler.NewSalaryHandler(app.ledger),
				log,
				cfg.Server.MaxFileSize,
			)

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Server.Port).Msg("starting payslip ledger service")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-cmd.Context().Done():
			}

			log.Info().Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var upSteps, downSteps int
	run := func(apply func(*repository.Migrator) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			db, err := repository.NewConnection(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			mg, err := repository.NewMigrator(db, cfg.Database.Driver)
			if err != nil {
				return err
			}
			return apply(mg)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: run(func(mg *repository.Migrator) error {
			if err := mg.Up(upSteps); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		}),
	}
	up.Flags().IntVar(&upSteps, "steps", 0, "number of migrations to apply (0 = all)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: run(func(mg *repository.Migrator) error {
			if err := mg.Down(downSteps); err != nil {
				return err
			}
			log.Info().Int("steps", downSteps).Msg("migrations rolled back")
			return nil
		}),
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back (0 = all)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(mg *repository.Migrator) error {
				v, dirty, err := mg.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <pay-slip-id>",
		Short: "Run extraction for one pay slip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.paySlips.ProcessPaySlip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(cmd, res)
			if !res.Success {
				return errors.New(res.Message)
			}
			return nil
		},
	}
}

func reprocessCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Retry every pay slip that has not been processed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			total, err := app.paySlips.PendingCount(ctx, limit)
			if err != nil {
				return err
			}
			if total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to reprocess")
				return nil
			}

			bar := progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Processing pay slips"),
			)

			counts := map[string]int{}
			results, err := app.paySlips.ReprocessPending(ctx, limit, func(res *dto.ProcessResult) {
				if res.Success {
					counts[string(res.Reconciliation)]++
				} else {
					counts["failed extraction"]++
				}
				_ = bar.Add(1)
			})
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed %d of %d pay slips\n", len(results), total)
			for k, n := range counts {
				fmt.Fprintf(out, "  %-18s %d\n", k, n)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of pay slips to process")
	return cmd
}

func salariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "salaries <owner-id>",
		Short: "List the ledger of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.ledger.ListSalaries(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "PERIOD\tGROSS\tTAX\tDEDUCTIONS\tNET\tSOURCE\t")
			for _, e := range entries {
				source := "manual"
				if e.AutoGenerated {
					source = "pay slip"
				}
				fmt.Fprintf(w, "%02d/%d\t%s\t%s\t%s\t%s\t%s\t\n",
					e.Month, e.Year,
					e.GrossSalary.StringFixed(2), e.TaxAmount.StringFixed(2),
					e.Deductions.StringFixed(2), e.NetSalary.StringFixed(2), source)
			}
			return w.Flush()
		},
	}
}

func statsCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "stats <owner-id>",
		Short: "Show yearly salary statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication()
			if err != nil {
				return err
			}
			defer app.Close()

			if year == 0 {
				year = time.Now().Year()
			}
			stats, err := app.ledger.MonthlyStatistics(cmd.Context(), args[0], year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Year %d, %d months recorded\n", stats.Year, stats.MonthsRecorded)
			fmt.Fprintf(out, "  gross        %s\n", stats.TotalGross.StringFixed(2))
			fmt.Fprintf(out, "  net          %s\n", stats.TotalNet.StringFixed(2))
			fmt.Fprintf(out, "  taxes        %s\n", stats.TotalTaxes.StringFixed(2))
			fmt.Fprintf(out, "  deductions   %s\n", stats.TotalDeductions.StringFixed(2))
			fmt.Fprintf(out, "  overtime     %s\n", stats.TotalOvertimePay.StringFixed(2))
			fmt.Fprintf(out, "  average net  %s\n", stats.AverageNet.StringFixed(2))
			for _, m := range stats.Months {
				fmt.Fprintf(out, "  %02d  net %s  tax rate %s%%\n", m.Month, m.NetSalary.StringFixed(2), m.TaxRate.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to summarise (default: current year)")
	return cmd
}

func printResult(cmd *cobra.Command, res *dto.ProcessResult) {
	out := cmd.OutOrStdout()
	switch {
	case !res.Success:
		fmt.Fprintf(out, "pay slip %s failed: %s\n", res.PaySlip.ID, res.Message)
		return
	case res.Cached:
		fmt.Fprintf(out, "pay slip %s: %s\n", res.PaySlip.ID, res.Message)
	default:
		fmt.Fprintf(out, "pay slip %s processed, ledger: %s\n", res.PaySlip.ID, res.Reconciliation)
	}
	if res.Period != nil {
		fmt.Fprintf(out, "  period %02d/%d\n", res.Period.Month, res.Period.Year)
	}
	if res.Salary != nil {
		fmt.Fprintf(out, "  gross %s  net %s\n", res.Salary.GrossSalary.StringFixed(2), res.Salary.NetSalary.StringFixed(2))
	}
}
