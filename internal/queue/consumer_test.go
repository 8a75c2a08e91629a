package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() BookingCreatedEvent {
	return BookingCreatedEvent{
		BookingID:      12,
		Reference:      "0b5f3e7a-1c2d-4e5f-8a9b-0c1d2e3f4a5b",
		RouteID:        3,
		RouteTitle:     "HX101",
		Origin:         "New York",
		Destination:    "Washington",
		DepartureTime:  "2026-03-01T14:00:00Z",
		PassengerName:  "Ada Lovelace",
		PassengerEmail: "ada@example.com",
		Seats:          2,
		TotalPrice:     "99.98",
		CreatedAt:      "2026-03-01T08:00:00Z",
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleEvent())

	assert.True(t, strings.HasPrefix(line, "[2026-03-01T08:00:00Z] Booking created | booking_id=12 |"))
	assert.Contains(t, line, `route="HX101"`)
	assert.Contains(t, line, `passenger="Ada Lovelace"`)
	assert.Contains(t, line, "seats=2 | total=99.98")
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestHandleMessageAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("amqp://unused", dir, nil)
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	require.NoError(t, c.HandleMessage(body))
	require.NoError(t, c.HandleMessage(body))

	data, err := os.ReadFile(filepath.Join(dir, BookingLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, lines[0], lines[1])
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("amqp://unused", dir, nil)

	err := c.HandleMessage([]byte("{not json"))

	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, BookingLogFile))
	assert.True(t, os.IsNotExist(statErr))
}
