package trading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderJSONWireForm(t *testing.T) {
	t.Parallel()

	o := newOrder("ord", Sell, Limit{Price: 1234.5})
	o.State = Filled{At: t0.Add(time.Minute), Price: 1240}

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "LIMIT", wire["type"])
	assert.Equal(t, "FILLED", wire["status"])
	assert.Equal(t, 1234.5, wire["limitPrice"])
	assert.Equal(t, 1240.0, wire["avgFillPrice"])
	assert.Equal(t, "2024-03-15T01:01:00Z", wire["filledAt"])
	assert.NotContains(t, wire, "canceledAt")
}

func TestOrderJSONRoundTrip(t *testing.T) {
	t.Parallel()

	orders := []Order{
		newOrder("m", Buy, Market{}),
		newOrder("l", Sell, Limit{Price: 999.9}),
		func() Order {
			o := newOrder("f", Buy, Market{})
			o.State = Filled{At: t0, Price: 1000.1}
			return o
		}(),
		func() Order {
			o := newOrder("c", Buy, Limit{Price: 800})
			o.State = Canceled{At: t0}
			return o
		}(),
	}

	data, err := json.Marshal(orders)
	require.NoError(t, err)

	var got []Order
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, orders, got)
}

func TestOrderJSONRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"limit without price":   `{"id":"a","symbol":"7203.T","side":"BUY","type":"LIMIT","qty":100,"status":"WORKING"}`,
		"market with limit":     `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"limitPrice":5,"status":"WORKING"}`,
		"filled without price":  `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"status":"FILLED","filledAt":"2024-01-01T00:00:00Z"}`,
		"working with fill":     `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"status":"WORKING","avgFillPrice":1}`,
		"zero qty":              `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":0,"status":"WORKING"}`,
		"bad side":              `{"id":"a","symbol":"7203.T","side":"HOLD","type":"MARKET","qty":100,"status":"WORKING"}`,
		"bad status":            `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"status":"PENDING"}`,
		"missing id":            `{"symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"status":"WORKING"}`,
		"qty is not an integer": `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":1.5,"status":"WORKING"}`,
		"canceled with a fill":  `{"id":"a","symbol":"7203.T","side":"BUY","type":"MARKET","qty":100,"status":"CANCELED","avgFillPrice":3}`,
	}

	for name, raw := range tests {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var o Order
			assert.Error(t, json.Unmarshal([]byte(raw), &o))
		})
	}
}
