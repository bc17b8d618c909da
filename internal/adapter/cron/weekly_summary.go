// Package cron triggers batch jobs on a schedule.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"weighttrack/internal/app"
)

// SummaryRunner generates summaries for the last completed week.
type SummaryRunner interface {
	Run(ctx context.Context) (*app.SummaryReport, error)
}

// WeeklySummaryJob runs the weekly summary generator on a cron schedule.
type WeeklySummaryJob struct {
	runner  SummaryRunner
	cron    *cron.Cron
	spec    string
	timeout time.Duration
}

// NewWeeklySummaryJob creates a job firing on spec, a standard five-field
// cron expression evaluated in loc.
func NewWeeklySummaryJob(runner SummaryRunner, spec string, loc *time.Location) *WeeklySummaryJob {
	if loc == nil {
		loc = time.Local
	}
	return &WeeklySummaryJob{
		runner:  runner,
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		spec:    spec,
		timeout: 30 * time.Minute,
	}
}

// Start registers the job and starts the scheduler.
func (j *WeeklySummaryJob) Start() error {
	log.Printf("Starting weekly summary job with schedule %q", j.spec)

	if _, err := j.cron.AddJob(j.spec, j); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	j.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (j *WeeklySummaryJob) Stop() {
	log.Println("Stopping weekly summary job...")
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Println("Weekly summary job stopped")
}

// Run executes one generation pass. It satisfies cron.Job.
func (j *WeeklySummaryJob) Run() {
	log.Println("Running weekly summaries...")

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	rep, err := j.runner.Run(ctx)
	if err != nil {
		log.Printf("Error generating weekly summaries: %v", err)
		return
	}
	log.Printf("Weekly summaries for %s..%s: %d generated, %d skipped, %d failed",
		rep.WeekStart.Format(time.DateOnly), rep.WeekEnd.Format(time.DateOnly),
		rep.Generated, rep.Skipped, rep.Failed)
}
