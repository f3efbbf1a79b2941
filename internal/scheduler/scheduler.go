package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/models"
)

// Snapshotter records the treasury balance as a settlement event.
type Snapshotter interface {
	SnapshotTreasury(ctx context.Context) (*models.SettlementEvent, error)
}

// Scheduler runs periodic jobs against the engine.
type Scheduler struct {
	Cron     *cron.Cron
	Treasury Snapshotter
	Ctx      context.Context
}

func NewScheduler(ctx context.Context, treasury Snapshotter) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Treasury: treasury,
		Ctx:      ctx,
	}
}

// RegisterAll registers the treasury snapshot job on the given six-field cron expression.
func (s *Scheduler) RegisterAll(snapshotCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunSnapshotNow takes a treasury snapshot immediately.
func (s *Scheduler) RunSnapshotNow() {
	s.snapshotTask()
}

func (s *Scheduler) snapshotTask() {
	if err := s.Ctx.Err(); err != nil {
		return
	}

	evt, err := s.Treasury.SnapshotTreasury(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("treasury snapshot failed")
		return
	}
	log.Info().
		Uint64("balance", evt.TreasuryBalance).
		Str("coins", models.FormatAmount(evt.TreasuryBalance)).
		Msg("treasury snapshot")
}
