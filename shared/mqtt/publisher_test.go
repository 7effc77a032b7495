package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"station-relay/internal/models"
	"station-relay/shared/config"
	"station-relay/shared/logging"
)

func TestReadingTopic(t *testing.T) {
	if got := readingTopic("stations", "KCOLITTL1240"); got != "stations/KCOLITTL1240/reading" {
		t.Errorf("Expected stations/KCOLITTL1240/reading, got %s", got)
	}
}

func TestEncodeReading(t *testing.T) {
	reading := models.WeatherReading{
		Temperature:   72.5,
		Humidity:      40,
		WindDirection: 180,
		CloudCoverage: 25,
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := encodeReading("KTEST1", reading)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded["station_id"] != "KTEST1" {
		t.Errorf("Expected station_id KTEST1, got %v", decoded["station_id"])
	}
	if decoded["temperature"] != 72.5 {
		t.Errorf("Expected flattened temperature 72.5, got %v", decoded["temperature"])
	}
	if decoded["cloud_coverage"] != float64(25) {
		t.Errorf("Expected cloud_coverage 25, got %v", decoded["cloud_coverage"])
	}
	if decoded["timestamp"] != "2024-01-01T00:00:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %v", decoded["timestamp"])
	}
}

func newTestPublisher() *Publisher {
	return NewPublisher(config.MQTTConfig{
		Broker:      "127.0.0.1",
		Port:        1,
		ClientID:    "test",
		TopicPrefix: "stations",
	}, logging.Discard())
}

func TestPublishWhenDisconnected(t *testing.T) {
	p := newTestPublisher()

	if p.IsConnected() {
		t.Fatal("Expected new publisher to be disconnected")
	}
	if err := p.PublishReading("KTEST1", models.WeatherReading{}); err == nil {
		t.Error("Expected error publishing while disconnected")
	}
}

func TestConnectAfterDisconnect(t *testing.T) {
	p := newTestPublisher()
	p.Disconnect()
	p.Disconnect()

	if err := p.Connect(context.Background()); err == nil {
		t.Error("Expected Connect to fail after Disconnect")
	}
}
