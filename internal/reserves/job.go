package reserves

import (
	"context"
	"fmt"

	"github.com/lotepro/lotepro-backend/pkg/logger"
)

// ReleaseJob adapts the release sweep to the cron runner.
type ReleaseJob struct {
	svc  Service
	logg *logger.Logger
}

// NewReleaseJob builds the periodic reserve release job.
func NewReleaseJob(svc Service, logg *logger.Logger) (*ReleaseJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("reserves service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &ReleaseJob{svc: svc, logg: logg}, nil
}

// Name identifies the job in logs, locks and metrics.
func (j *ReleaseJob) Name() string {
	return "release-reserves"
}

// Run executes one sweep.
func (j *ReleaseJob) Run(ctx context.Context) error {
	summary, err := j.svc.ReleaseDue(ctx)
	if err != nil {
		return err
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"checked":  summary.Checked,
		"released": summary.Released,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	})
	j.logg.Info(ctx, "reserve release sweep finished")
	return nil
}
