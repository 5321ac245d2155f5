package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Publisher = (*Publisher)(nil)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	require.NoError(t, err, "starting embedded NATS")
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS not ready")
	return srv.ClientURL()
}

func TestPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := New(url, WithSubjectPrefix("espalier"))
	require.NoError(t, err)
	defer pub.Close()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("espalier.record.resolved", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe() //nolint:errcheck
	require.NoError(t, nc.Flush())

	event := domain.RecordEvent{
		EventBase: domain.EventBase{Type: domain.EventRecordResolved, RunID: "run-1"},
		RecordID:  "b1",
		Visited:   3,
	}
	require.NoError(t, pub.Publish(context.Background(), "record.resolved", event))

	select {
	case msg := <-ch:
		var got domain.RecordEvent
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, "b1", got.RecordID)
		assert.Equal(t, domain.EventRecordResolved, got.Type)
		assert.Equal(t, 3, got.Visited)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublisher_Errors(t *testing.T) {
	url := startTestNATS(t)
	pub, err := New(url)
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "record.failed", pub.Subject("record.failed"))

	err = pub.Publish(context.Background(), "x", make(chan int))
	assert.ErrorContains(t, err, "marshaling event")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Publish(ctx, "x", 1), context.Canceled)
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New("nats://127.0.0.1:1")
	assert.Error(t, err)
}
