package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/pipeline"
)

var batchFile string

// batchJob is one saved search to run on behalf of a user.
type batchJob struct {
	User     string `yaml:"user_id"`
	Count    int    `yaml:"count"`
	Criteria struct {
		Location         string   `yaml:"location"`
		SellerType       string   `yaml:"seller_type"`
		PropertyType     string   `yaml:"property_type"`
		MinBedrooms      *int     `yaml:"min_bedrooms"`
		MaxPrice         *float64 `yaml:"max_price"`
		MinEquityPercent *float64 `yaml:"min_equity_percent"`
	} `yaml:"criteria"`
}

type batchSpec struct {
	Jobs []batchJob `yaml:"jobs"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run saved searches for many users from a jobs file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		data, err := os.ReadFile(batchFile)
		if err != nil {
			return eris.Wrap(err, "read jobs file")
		}
		var spec batchSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return eris.Wrap(err, "parse jobs file")
		}
		if len(spec.Jobs) == 0 {
			return eris.New("jobs file contains no jobs")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return runBatch(ctx, spec.Jobs, cfg.Batch.MaxConcurrentUsers, env.Orchestrator)
	},
}

// runBatch runs jobs concurrently with a bounded worker count. Jobs for
// different users never contend; two jobs for the same user serialize on the
// cursor row in the store, not in process.
func runBatch(ctx context.Context, jobs []batchJob, concurrency int, orch *pipeline.Orchestrator) error {
	if concurrency <= 0 {
		concurrency = 5
	}

	var delivered, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			res, err := orch.Acquire(gctx, pipeline.AcquireRequest{
				UserID:   job.User,
				Criteria: jobCriteria(job),
				Count:    job.Count,
			})
			if err != nil {
				// One failed user must not cancel the rest of the batch.
				failed.Add(1)
				zap.L().Error("batch job failed",
					zap.String("user", job.User), zap.Error(err))
				return nil
			}
			delivered.Add(int64(len(res.Delivered)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int64("delivered", delivered.Load()),
		zap.Int64("failed_jobs", failed.Load()),
	)
	return nil
}

func jobCriteria(j batchJob) model.SearchCriteria {
	return model.SearchCriteria{
		Location:         j.Criteria.Location,
		SellerType:       j.Criteria.SellerType,
		PropertyType:     j.Criteria.PropertyType,
		MinBedrooms:      j.Criteria.MinBedrooms,
		MaxPrice:         j.Criteria.MaxPrice,
		MinEquityPercent: j.Criteria.MinEquityPercent,
	}
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "jobs.yaml", "YAML file listing acquisition jobs")
	rootCmd.AddCommand(batchCmd)
}
