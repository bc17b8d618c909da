package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weighttrack/internal/adapter/cron"
	adapthttp "weighttrack/internal/adapter/http"
	"weighttrack/internal/app"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the weekly summary scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadServices(*configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			server := adapthttp.New(adapthttp.Services{
				Weight:   svc.weight,
				Profile:  svc.profile,
				Insights: svc.insights,
				Summary:  svc.summary,
				Import:   svc.imports,
			}, svc.db, svc.cfg.HTTP.WebDir)
			if svc.cfg.HTTP.DisableAuth {
				log.Println("auth disabled: all requests act as the local user")
				server = server.WithoutAuth()
			}

			if svc.cfg.Scheduler.Enabled {
				job := cron.NewWeeklySummaryJob(svc.summary, svc.cfg.Scheduler.WeeklySummary, time.Local)
				if err := job.Start(); err != nil {
					return err
				}
				defer job.Stop()
			}

			srv := &http.Server{
				Addr:              svc.cfg.HTTP.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Println("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Recompute BMI values, streaks and milestones for every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tasks []app.SyncTask
			switch t := app.SyncTask(only); t {
			case "":
			case app.SyncMilestones, app.SyncBMI, app.SyncStreaks:
				tasks = append(tasks, t)
			default:
				return fmt.Errorf("--only must be one of milestones, bmi, streaks; got %q", only)
			}

			svc, err := loadServices(*configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd, 30*time.Minute)
			defer cancel()
			rep, err := svc.progress.SyncAll(ctx, tasks...)
			if rep != nil {
				log.Printf("sync: %d users, %d milestones unlocked, %d BMI values updated", rep.Users, rep.Unlocked, rep.BMIUpdated)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "run a single task: milestones, bmi or streaks")
	return cmd
}

func newWeeklySummariesCmd(configPath *string) *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "weekly-summaries",
		Short: "Generate weekly summaries for the last completed week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadServices(*configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd, 30*time.Minute)
			defer cancel()

			var rep *app.SummaryReport
			if week == "" {
				rep, err = svc.summary.Run(ctx)
			} else {
				start, perr := time.ParseInLocation(time.DateOnly, week, time.Local)
				if perr != nil {
					return fmt.Errorf("--week must be YYYY-MM-DD: %w", perr)
				}
				rep, err = svc.summary.RunWindow(ctx, start, start.AddDate(0, 0, 6))
			}
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(rep)
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "first day (YYYY-MM-DD) of the week to summarize instead of the last completed one")
	return cmd
}

func newImportCmd(configPath *string) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a weight log CSV for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices(*configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd, 10*time.Minute)
			defer cancel()
			user, err := resolveUser(ctx, svc.db, username)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			rep, err := svc.imports.Import(ctx, user.ID, f)
			if err != nil {
				return err
			}
			for _, s := range rep.Skipped {
				log.Printf("skipped %s", s.Error())
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d, backfilled %d, skipped %d\n",
				rep.Imported, rep.Backfilled, len(rep.Skipped))
			return err
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username to import for")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var username, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's weight log as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadServices(*configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd, 10*time.Minute)
			defer cancel()
			user, err := resolveUser(ctx, svc.db, username)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close() //nolint:errcheck
				w = f
			}
			return svc.imports.Export(ctx, user.ID, w)
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username to export")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}
