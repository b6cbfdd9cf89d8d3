package eventbus

import (
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestPublisher_PublishesIngestionEvent(t *testing.T) {
	server := startTestNATSServer(t)

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan *nats.Msg, 1)
	_, err = sub.Subscribe(SubjectCorpusIngested, func(m *nats.Msg) {
		received <- m
	})
	require.NoError(t, err)

	pub, err := Connect(server.ClientURL(), nil)
	require.NoError(t, err)
	defer pub.Close()

	pub.Publish(SubjectCorpusIngested, IngestionEvent{
		BatchID:        "batch-1",
		DocumentsTotal: 3,
		ChunksCreated:  12,
	})

	select {
	case msg := <-received:
		var event IngestionEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, "batch-1", event.BatchID)
		assert.Equal(t, 12, event.ChunksCreated)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestNoopPublisher_PublishIsHarmless(t *testing.T) {
	pub := NewNoop()
	pub.Publish(SubjectCorpusIngested, IngestionEvent{BatchID: "batch-1"})
	assert.NoError(t, pub.Close())
}

func TestNilPublisher_PublishIsHarmless(t *testing.T) {
	var pub *Publisher
	pub.Publish(SubjectCorpusIngested, IngestionEvent{BatchID: "batch-1"})
	assert.NoError(t, pub.Close())
}

func TestConnect_InvalidURLReturnsError(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", nil)
	assert.Error(t, err)
}
