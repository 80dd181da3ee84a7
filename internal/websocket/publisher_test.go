package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", "auth0|alice")
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish("auth0|alice", PaymentSubmitted(map[string]interface{}{"loanId": "l-1"}))

	assert.Eventually(t, messageCount(client), time.Second, 5*time.Millisecond)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish("auth0|alice", LoanCompleted(map[string]interface{}{"loanId": "l-1"}))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
