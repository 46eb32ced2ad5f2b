// Package memory provides an in-process publisher for tests and local runs.
package memory

import (
	"context"
	"strconv"
	"sync"
)

// Message records a single published payload.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher collects messages in memory.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
}

// New creates an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the payload and returns a sequential id.
func (p *Publisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	p.messages = append(p.messages, Message{Topic: topic, Payload: buf})
	return strconv.Itoa(len(p.messages)), nil
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}
