package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	t.Run("Delivers To Matching Type", func(t *testing.T) {
		b := New()
		var got []Event
		_, err := b.Subscribe(TypeObjectSpawned, func(e Event) error {
			got = append(got, e)
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, b.Publish(NewEvent(TypeObjectSpawned, "test", 42)))
		require.Len(t, got, 1)
		require.Equal(t, TypeObjectSpawned, got[0].Type())
		require.Equal(t, "test", got[0].Source())
		require.Equal(t, 42, got[0].Data())
	})

	t.Run("Other Types Are Not Delivered", func(t *testing.T) {
		b := New()
		calls := 0
		_, err := b.Subscribe(TypeObjectSpawned, func(Event) error {
			calls++
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, b.Publish(NewEvent(TypeObjectDeleted, "test", nil)))
		require.Zero(t, calls)
	})

	t.Run("Multiple Subscribers", func(t *testing.T) {
		b := New()
		calls := 0
		for i := 0; i < 3; i++ {
			_, err := b.Subscribe(TypeSceneReset, func(Event) error {
				calls++
				return nil
			})
			require.NoError(t, err)
		}
		require.NoError(t, b.Publish(NewEvent(TypeSceneReset, "test", nil)))
		require.Equal(t, 3, calls)
	})
}

func TestSubscriptionCancel(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe(TypeConfigChanged, func(Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.True(t, sub.IsActive())

	require.NoError(t, b.Publish(NewEvent(TypeConfigChanged, "test", nil)))
	require.NoError(t, sub.Cancel())
	require.False(t, sub.IsActive())

	require.NoError(t, b.Publish(NewEvent(TypeConfigChanged, "test", nil)))
	require.Equal(t, 1, calls)

	// Unsubscribe tolerates an already-cancelled subscription and nil.
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, b.Unsubscribe(nil))
}

func TestTopics(t *testing.T) {
	b := New()
	plain, scoped := 0, 0

	_, err := b.Subscribe(TypeTelemetryFrame, func(Event) error {
		plain++
		return nil
	})
	require.NoError(t, err)
	_, err = b.SubscribeTopic("inspector", TypeTelemetryFrame, func(Event) error {
		scoped++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent(TypeTelemetryFrame, "test", nil)))
	require.Equal(t, 1, plain)
	require.Zero(t, scoped)

	require.NoError(t, b.PublishToTopic("inspector", NewEvent(TypeTelemetryFrame, "test", nil)))
	require.Equal(t, 1, plain)
	require.Equal(t, 1, scoped)
}

func TestHandlerErrors(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	_, err := b.Subscribe(TypeObjectDeleted, func(Event) error { return boom })
	require.NoError(t, err)
	ok := 0
	_, err = b.Subscribe(TypeObjectDeleted, func(Event) error {
		ok++
		return nil
	})
	require.NoError(t, err)

	// A failing handler surfaces its error but does not stop delivery to
	// the others.
	err = b.Publish(NewEvent(TypeObjectDeleted, "test", nil))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, ok)
}

func TestFilters(t *testing.T) {
	b := New()
	calls := 0
	_, err := b.Subscribe(TypeGlobalMode, func(Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	pass := func(Event) bool { return true }
	block := func(Event) bool { return false }

	require.NoError(t, b.PublishWithFilters(NewEvent(TypeGlobalMode, "test", nil), pass))
	require.NoError(t, b.PublishWithFilters(NewEvent(TypeGlobalMode, "test", nil), block))
	require.NoError(t, b.PublishWithFilters(NewEvent(TypeGlobalMode, "test", nil), pass, block))
	require.Equal(t, 1, calls)

	m := b.Metrics()
	require.Equal(t, uint64(2), m.DroppedByFilters)
}

func TestMetrics(t *testing.T) {
	b := New()
	_, err := b.Subscribe(TypeObjectReleased, func(Event) error { return nil })
	require.NoError(t, err)
	_, err = b.Subscribe(TypeObjectReleased, func(Event) error { return errors.New("bad") })
	require.NoError(t, err)

	_ = b.Publish(NewEvent(TypeObjectReleased, "test", nil))
	_ = b.Publish(NewEvent(TypeEnvironmentMode, "test", nil))

	m := b.Metrics()
	require.Equal(t, uint64(2), m.Published)
	require.Equal(t, uint64(1), m.Delivered)
	require.Equal(t, uint64(1), m.HandlerErrors)
}

func TestMetricsAllHandlersFailing(t *testing.T) {
	b := New()
	_, err := b.Subscribe(TypeSceneReset, func(Event) error { return errors.New("bad") })
	require.NoError(t, err)
	_ = b.Publish(NewEvent(TypeSceneReset, "test", nil))

	m := b.Metrics()
	require.Zero(t, m.Delivered)
	require.Equal(t, uint64(1), m.HandlerErrors)
}
