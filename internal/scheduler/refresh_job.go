package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/modules/ingest"
)

// refreshTimeout bounds one scheduled ingestion run.
const refreshTimeout = 10 * time.Minute

// RefreshJob re-runs the ingestion pipeline so the index keeps up with
// new data files.
type RefreshJob struct {
	service *ingest.Service
	symbols []string
	log     zerolog.Logger
}

// NewRefreshJob creates a refresh job over the configured symbols.
func NewRefreshJob(service *ingest.Service, symbols []string, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		symbols: symbols,
		log:     log.With().Str("job", "index_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "index_refresh"
}

// Run executes one ingestion pass
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	report, err := j.service.Run(ctx, j.symbols)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("batch_id", report.BatchID).
		Int("total", report.Total).
		Msg("Scheduled index refresh complete")
	return nil
}
