package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/agrolink-io/agrolink/pkg/log"
	"github.com/agrolink-io/agrolink/pkg/mqtt"
)

// ExampleClient shows the standard lifecycle of the AgroLink MQTT component:
// configure, start, subscribe, await the connection, publish, disconnect.
func ExampleClient() {
	// In a real component the config comes from pkg/options or CLI flags.
	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "example-agent-001",
		Username:       "admin",
		Password:       "public",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		// Field brokers run self-signed certificates.
		InsecureSkipVerify: true,
		// Agents that need offline messages keep the session.
		CleanStart: false,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start is non-blocking; connection and reconnection run in the
	// background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	// Handlers run on their own goroutine; keep them short. The wildcard
	// subscription is re-sent automatically after a reconnect.
	handler := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("Received message on topic %s: %s\n", topic, string(payload))
	}
	if err := client.Subscribe(ctx, "agri/v1/telemetry/+", 1, handler); err != nil {
		log.Error(err, "Failed to subscribe")
	}

	// Block until connected when the caller needs the link up, e.g. for a
	// readiness probe.
	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	payload := []byte(`{"peer_id":"tractor-01","message_success_rate":1}`)
	if err := client.Publish(ctx, "agri/v1/telemetry/tractor-01", 1, true, payload); err != nil {
		log.Error(err, "Failed to publish message")
	}

	client.Disconnect(ctx)
}
