package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/types"
)

// classify reads the visible instruction and builds a Challenge from it.
// The target class comes from the emphasized term; the variant comes from
// the wrapper's full text. The caller handles unrecognized targets.
func (e *Engine) classify(ctx context.Context) (*types.Challenge, error) {
	instruction, err := e.driver.Text(ctx, instructionSelector, e.cfg.ElementTimeout)
	if err != nil {
		return nil, err
	}
	wrapper, err := e.driver.Text(ctx, wrapperSelector, e.cfg.ElementTimeout)
	if err != nil {
		return nil, err
	}

	ch := types.NewChallenge(types.ClassifyTarget(instruction), classifyVariant(wrapper))
	e.logger.Info("classified challenge",
		zap.String("challenge", ch.ID.String()),
		zap.String("instruction", instruction),
		zap.String("variant", string(ch.Variant)),
		zap.Int("target", int(ch.Target)))
	return ch, nil
}

// classifyVariant picks the grid variant from the wrapper text. The
// squares wording always includes "squares"; the dynamic wording asks to
// click until "none" are left; everything else is the one-shot selection.
func classifyVariant(wrapper string) types.Variant {
	lower := strings.ToLower(wrapper)
	switch {
	case strings.Contains(lower, "squares"):
		return types.VariantSquares
	case strings.Contains(lower, "none"):
		return types.VariantDynamic
	default:
		return types.VariantSelection
	}
}
