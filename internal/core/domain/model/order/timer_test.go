package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_Remaining(t *testing.T) {
	timer, err := order.RestoreTimer(order.ManagerDecision, t0.Add(30*time.Second), t0)
	require.NoError(t, err)

	assert.True(t, timer.IsOpen())
	assert.Equal(t, 30*time.Second, timer.Remaining(t0))
	assert.False(t, timer.Expired(t0.Add(29*time.Second)))
	assert.True(t, timer.Expired(t0.Add(30*time.Second)))
	assert.Zero(t, timer.Remaining(t0.Add(time.Hour)))

	none := order.NoTimer()
	assert.False(t, none.IsOpen())
	assert.True(t, none.Expired(t0))
}

func TestRestoreTimer(t *testing.T) {
	none, err := order.RestoreTimer(order.TimerNone, t0, t0)
	require.NoError(t, err)
	assert.Equal(t, order.NoTimer(), none)

	_, err = order.RestoreTimer(order.AcceptanceWindow, time.Time{}, t0)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = order.RestoreTimer(order.TimerKind(7), t0, t0)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestParseTimerKind(t *testing.T) {
	for _, k := range []order.TimerKind{order.TimerNone, order.AcceptanceWindow, order.ManagerDecision} {
		parsed, err := order.ParseTimerKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := order.ParseTimerKind("lunch_break")
	require.Error(t, err)
}

func TestCandidates(t *testing.T) {
	c := order.NewCandidates("livreur2", "livreur1", "livreur2", "")

	assert.Equal(t, []string{"livreur2", "livreur1"}, c.IDs())
	assert.True(t, c.Contains("livreur1"))
	assert.False(t, c.Contains("livreur3"))

	ids := c.IDs()
	ids[0] = "mutated"
	assert.Equal(t, "livreur2", c.IDs()[0])
}

func TestWindowPolicy_Validate(t *testing.T) {
	require.NoError(t, order.DefaultWindowPolicy().Validate())
	assert.Equal(t, 60*time.Second, order.DefaultWindowPolicy().Acceptance)

	err := order.WindowPolicy{Acceptance: time.Second}.Validate()
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}
