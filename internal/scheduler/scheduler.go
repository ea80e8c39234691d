// Package scheduler запускает периодическую материализацию шаблонов.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"example.com/household-ledger/internal/config"
	"example.com/household-ledger/internal/recurring"
)

// Start поднимает cron с одной задачей: материализовать шаблоны за текущий
// месяц. Задача гоняется ежедневно — материализация идемпотентна, и
// ежедневный прогон подбирает шаблоны, подтвержденные после первого числа.
func Start(cfg config.SchedulerConfig, materializer *recurring.Materializer) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		now := time.Now()
		created, err := materializer.Run(ctx, int(now.Month()), now.Year())
		if err != nil {
			slog.Error("scheduled materialization failed",
				slog.Int("created", created),
				slog.String("error", err.Error()),
			)
			return
		}
		slog.Info("scheduled materialization finished", slog.Int("created", created))
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	slog.Info("scheduler started", slog.String("cron", cfg.CronSpec))
	return c, nil
}
