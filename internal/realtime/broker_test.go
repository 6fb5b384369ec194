package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/plantpal-service/internal/domain"
)

func marshalEnvelope(t *testing.T, env envelope) string {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return string(data)
}

func TestBroker_LocalOnlyWithoutRedis(t *testing.T) {
	hub := NewHub(4, nil, nil)
	defer hub.Close()
	conn := &fakeConn{}
	c := hub.Connect(conn, "u1")
	hub.Join(c, "u1")

	broker := NewBroker(hub, nil, nil)
	n := domain.Notification{Type: domain.NotificationSuccess, Msg: "saved"}
	assert.Equal(t, 1, broker.Notify(context.Background(), "u1", n))
	waitFrames(t, conn, 1)
}

func TestBroker_HandleMessage(t *testing.T) {
	hub := NewHub(4, nil, nil)
	defer hub.Close()
	c := hub.Connect(&fakeConn{}, "u1")
	hub.Join(c, "u1")

	broker := NewBroker(hub, nil, nil)
	n := domain.Notification{Type: domain.NotificationInfo, Msg: "from elsewhere"}

	foreign := marshalEnvelope(t, envelope{InstanceID: "other", Room: "u1", Notification: n, Timestamp: time.Now()})
	assert.Equal(t, 1, broker.handleMessage(foreign))

	own := marshalEnvelope(t, envelope{InstanceID: broker.InstanceID(), Room: "u1", Notification: n})
	assert.Equal(t, 0, broker.handleMessage(own))

	noRoom := marshalEnvelope(t, envelope{InstanceID: "other", Notification: n})
	assert.Equal(t, 0, broker.handleMessage(noRoom))

	assert.Equal(t, 0, broker.handleMessage("{not json"))
}

func TestBroker_RunWithoutRedisStopsWithContext(t *testing.T) {
	broker := NewBroker(NewHub(1, nil, nil), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- broker.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
