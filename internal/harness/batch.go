package harness

import (
	"context"
	"fmt"

	tomb "gopkg.in/tomb.v2"

	"tickbot/internal/scenario"
	"tickbot/internal/utils"
)

// RunAll replays independent scenarios on a worker pool, each with a fresh
// runner from newRunner. Reports come back in the order of scenarios. The
// first failing scenario stops the rest.
func RunAll(
	ctx context.Context,
	scenarios []*scenario.Scenario,
	workers uint,
	newRunner func() (*Runner, error),
) ([]*Report, error) {
	reports := make([]*Report, len(scenarios))

	t, ctx := tomb.WithContext(ctx)
	pool := utils.NewWorkerPool(workers)
	pool.Setup(t, func(_ *tomb.Tomb, task any) error {
		idx, ok := task.(int)
		if !ok {
			return utils.ErrImproperConversion
		}

		runner, err := newRunner()
		if err != nil {
			return err
		}
		report, err := runner.Run(ctx, scenarios[idx])
		if err != nil {
			return fmt.Errorf("scenario %s: %w", scenarios[idx].Name, err)
		}
		reports[idx] = report
		return nil
	})

	for idx := range scenarios {
		if !pool.AddTask(t, idx) {
			break
		}
	}
	pool.Close()

	if err := t.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
