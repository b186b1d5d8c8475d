package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
)

func TestRoller_LogsEveryEvaluation(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(fixedSrc{v: 2}, zap.New(core))

	res, err := r.RollExpr("1d6+1")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total())

	max := r.Evaluate(dice.MustParse("1d4"), true)
	assert.Equal(t, 4, max.Total())

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].ContextMap()["total"])
	assert.Equal(t, true, entries[1].ContextMap()["maximized"])
}
