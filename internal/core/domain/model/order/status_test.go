package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringAndParse(t *testing.T) {
	for _, s := range []order.Status{order.Pending, order.Ready, order.Assigned, order.Delivered, order.Cancelled} {
		parsed, err := order.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
		require.NoError(t, s.Validate())
	}

	_, err := order.ParseStatus("unknown")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	require.Error(t, order.Unknown.Validate())
	require.Error(t, order.Status(42).Validate())
	assert.Equal(t, "unknown", order.Status(42).String())
}

func TestStatus_Transitions(t *testing.T) {
	type transition func(order.Status) (order.Status, error)

	markReady := func(s order.Status) (order.Status, error) { return s.MarkReady() }
	assign := func(s order.Status) (order.Status, error) { return s.Assign() }
	deliver := func(s order.Status) (order.Status, error) { return s.Deliver() }
	cancel := func(s order.Status) (order.Status, error) { return s.Cancel() }

	tests := []struct {
		name string
		from order.Status
		do   transition
		want order.Status
		ok   bool
	}{
		{"pending can be marked ready", order.Pending, markReady, order.Ready, true},
		{"ready cannot be marked ready twice", order.Ready, markReady, order.Unknown, false},
		{"ready can be assigned", order.Ready, assign, order.Assigned, true},
		{"pending cannot be assigned", order.Pending, assign, order.Unknown, false},
		{"assigned cannot be assigned again", order.Assigned, assign, order.Unknown, false},
		{"assigned can be delivered", order.Assigned, deliver, order.Delivered, true},
		{"ready cannot be delivered", order.Ready, deliver, order.Unknown, false},
		{"pending can be cancelled", order.Pending, cancel, order.Cancelled, true},
		{"ready can be cancelled", order.Ready, cancel, order.Cancelled, true},
		{"assigned cannot be cancelled", order.Assigned, cancel, order.Unknown, false},
		{"cancelled cannot be cancelled again", order.Cancelled, cancel, order.Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.do(tt.from)
			if !tt.ok {
				require.ErrorIs(t, err, errs.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_Classification(t *testing.T) {
	assert.True(t, order.Assigned.HasDriver())
	assert.True(t, order.Delivered.HasDriver())
	assert.False(t, order.Ready.HasDriver())
}
