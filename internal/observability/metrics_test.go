package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordRequest_AccumulatesCountAndLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/restaurants/:restaurantID/reservations", "POST", 201, 20*time.Millisecond)
	m.RecordRequest("/restaurants/:restaurantID/reservations", "POST", 201, 30*time.Millisecond)
	m.RecordRequest("/restaurants/:restaurantID/reservations", "POST", 403, 5*time.Millisecond)

	count, total := m.RequestStats("/restaurants/:restaurantID/reservations", "POST", 201)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 50*time.Millisecond, total)

	count, total = m.RequestStats("/restaurants/:restaurantID/reservations", "POST", 403)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 5*time.Millisecond, total)
}

func TestRequestStats_UnknownKeyIsZero(t *testing.T) {
	m := NewMetrics()
	count, total := m.RequestStats("/nope", "GET", 200)
	assert.Zero(t, count)
	assert.Zero(t, total)
}
