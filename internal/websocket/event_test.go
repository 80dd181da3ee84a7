package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"loanId":           "4f1c1c4e-0000-0000-0000-000000000001",
		"remainingBalance": 300000,
	}

	before := time.Now()
	evt := NewEvent(EventTypeSubmitted, EntityTypePayment, payload)
	after := time.Now()

	assert.Equal(t, "payment.submitted", evt.Type)
	assert.Equal(t, EntityTypePayment, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"loanId":               "l-1",
		"completionPercentage": float64(33),
	}

	evt := Event{
		Type:      "payment.submitted",
		Entity:    EntityTypePayment,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime, decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "l-1", decodedPayload["loanId"])
	assert.Equal(t, float64(33), decodedPayload["completionPercentage"])
}

func TestEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"loanId": "l-1"}

	tests := []struct {
		name     string
		evt      Event
		wantType string
		entity   EntityType
	}{
		{"LoanCreated", LoanCreated(payload), "loan.created", EntityTypeLoan},
		{"LoanCompleted", LoanCompleted(payload), "loan.completed", EntityTypeLoan},
		{"PaymentSubmitted", PaymentSubmitted(payload), "payment.submitted", EntityTypePayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, payload, tt.evt.Payload)
		})
	}
}
