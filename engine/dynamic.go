package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/compositor"
	"github.com/solvekit/captchaflow/grid"
	"github.com/solvekit/captchaflow/pacing"
	"github.com/solvekit/captchaflow/types"
)

// dynamicRounds drains a dynamic challenge: after each click pass the
// selected tiles are replaced with fresh imagery, which is composited onto
// the working canvas and re-detected until no target remains. The first
// click pass already happened; selected and prevURLs describe it.
func (e *Engine) dynamicRounds(ctx context.Context, ch *types.Challenge, selected []int, prevURLs []string) error {
	for round := 1; round <= e.cfg.MaxRefreshRounds; round++ {
		currURLs, err := e.waitRefresh(ctx, selected, prevURLs)
		if err != nil {
			return err
		}

		if err := e.comp.Composite(ctx, selected, currURLs); err != nil {
			if !types.IsRetryable(err) {
				return err
			}
			// Re-read the grid and retry the pass; the replacement URLs
			// may themselves have rotated under us.
			e.metrics.RecordRefreshRetry()
			e.logger.Debug("compositing retry", zap.Int("round", round), zap.Error(err))
			continue
		}

		dets, err := e.detect(ctx, e.comp.Canvas())
		if err != nil {
			return err
		}
		next := grid.MapCentroid(dets, ch.Target).Sorted()
		e.logger.Info("dynamic round",
			zap.String("challenge", ch.ID.String()),
			zap.Int("round", round),
			zap.Ints("tiles", next))
		if len(next) == 0 {
			return nil
		}

		if err := e.clickTiles(ctx, next, pacing.TileClick); err != nil {
			return err
		}
		selected, prevURLs = next, currURLs
	}
	return types.NewError(types.ErrRetryExhausted,
		fmt.Sprintf("dynamic grid still busy after %d rounds", e.cfg.MaxRefreshRounds))
}

// waitRefresh polls the grid until every selected tile's source URL has
// changed from its previous value. Stale reads during the widget's
// re-render are expected and retried; only exhausting the poll budget is
// an error.
func (e *Engine) waitRefresh(ctx context.Context, selected []int, prevURLs []string) ([]string, error) {
	for poll := 0; poll < e.cfg.MaxRefreshPolls; poll++ {
		currURLs, err := e.tileURLs(ctx)
		if err == nil && compositor.Refreshed(selected, prevURLs, currURLs) {
			return currURLs, nil
		}
		if err != nil {
			e.logger.Debug("tile read during re-render", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.cfg.RefreshPoll):
		}
	}
	return nil, types.NewError(types.ErrNotReady,
		fmt.Sprintf("selected tiles not refreshed after %d polls", e.cfg.MaxRefreshPolls)).
		WithRetryable(true)
}
