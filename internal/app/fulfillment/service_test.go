package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup map[string]domain.Order

func (l lookup) FindOrder(id string) (domain.Order, bool) {
	o, ok := l[id]
	return o, ok
}

type write struct {
	id          string
	current, to domain.Status
}

type recordingWriter struct {
	writes []write
	err    error
}

func (w *recordingWriter) UpdateOrderStatus(_ context.Context, id string, current, to domain.Status) error {
	w.writes = append(w.writes, write{id: id, current: current, to: to})
	return w.err
}

func newService(status domain.Status) (*Service, *recordingWriter, *metrics.Registry) {
	w := &recordingWriter{}
	reg := metrics.NewRegistry()
	svc := NewService(lookup{"o1": {ID: "o1", Status: status}}, w, reg, logger.Nop())
	return svc, w, reg
}

func TestTransition_Table(t *testing.T) {
	all := []domain.Status{
		domain.StatusPending, domain.StatusConfirmed, domain.StatusShipped,
		domain.StatusDelivered, domain.StatusCancelled,
	}
	legal := map[[2]domain.Status]bool{
		{domain.StatusPending, domain.StatusConfirmed}: true,
		{domain.StatusPending, domain.StatusCancelled}: true,
		{domain.StatusConfirmed, domain.StatusShipped}: true,
		{domain.StatusShipped, domain.StatusDelivered}: true,
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				svc, w, _ := newService(from)
				err := svc.Transition(context.Background(), "o1", to)

				switch {
				case from == to:
					require.NoError(t, err)
					assert.Empty(t, w.writes)
				case legal[[2]domain.Status{from, to}]:
					require.NoError(t, err)
					require.Len(t, w.writes, 1)
					assert.Equal(t, write{id: "o1", current: from, to: to}, w.writes[0])
				default:
					assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
					assert.Empty(t, w.writes)
				}
			})
		}
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc, w, _ := newService(domain.StatusPending)
	err := svc.Confirm(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, w.writes)
}

func TestTransition_WriteFailureIsReturned(t *testing.T) {
	svc, w, reg := newService(domain.StatusConfirmed)
	w.err = errors.New("network unreachable")

	err := svc.Ship(context.Background(), "o1")
	assert.ErrorContains(t, err, "network unreachable")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StatusTransitions.WithLabelValues("SHIPPED", "error")))
}

func TestHelpers(t *testing.T) {
	ctx := context.Background()

	svc, w, _ := newService(domain.StatusPending)
	require.NoError(t, svc.Cancel(ctx, "o1"))
	assert.Equal(t, domain.StatusCancelled, w.writes[0].to)

	svc, w, _ = newService(domain.StatusShipped)
	require.NoError(t, svc.Deliver(ctx, "o1"))
	assert.Equal(t, domain.StatusDelivered, w.writes[0].to)
}

func TestNextActions(t *testing.T) {
	assert.Equal(t, []Action{
		{Label: "Confirm", To: domain.StatusConfirmed},
		{Label: "Cancel", To: domain.StatusCancelled},
	}, NextActions(domain.StatusPending))
	assert.Equal(t, []Action{{Label: "Ship", To: domain.StatusShipped}}, NextActions(domain.StatusConfirmed))
	assert.Empty(t, NextActions(domain.StatusDelivered))
	assert.Empty(t, NextActions(domain.StatusCancelled))
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "Pending", Badge(domain.StatusPending))
	assert.Equal(t, "Cancelled", Badge(domain.StatusCancelled))
}
