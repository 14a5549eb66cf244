package sse

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"diabeater-console/utils"
)

// Event is one server-sent event addressed to a user.
type Event struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
	UserID string      `json:"user_id"`
}

// Broker fans events out to the open streams of each user.
type Broker struct {
	clients map[string]map[chan Event]bool
	mu      sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[string]map[chan Event]bool),
	}
}

// Subscribe registers a buffered channel for userID. The returned func
// unregisters and closes it.
func (b *Broker) Subscribe(userID string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.Register(userID, ch)
	var once sync.Once
	return ch, func() { once.Do(func() { b.Unregister(userID, ch) }) }
}

func (b *Broker) Register(userID string, clientChan chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[userID]; !ok {
		b.clients[userID] = make(map[chan Event]bool)
	}
	b.clients[userID][clientChan] = true

	utils.Log.WithFields(logrus.Fields{"uid": userID, "clients": len(b.clients[userID])}).
		Debug("📡 [SSE] client registered")
}

func (b *Broker) Unregister(userID string, clientChan chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userClients, ok := b.clients[userID]
	if !ok || !userClients[clientChan] {
		return
	}
	delete(userClients, clientChan)
	close(clientChan)
	if len(userClients) == 0 {
		delete(b.clients, userID)
	}

	utils.Log.WithFields(logrus.Fields{"uid": userID, "remaining": len(userClients)}).
		Debug("📡 [SSE] client unregistered")
}

// Broadcast sends an event to every stream of event.UserID. Slow clients
// whose buffer is full miss the event.
func (b *Broker) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userClients, ok := b.clients[event.UserID]
	if !ok {
		return
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		utils.Log.WithError(err).Error("❌ [SSE] failed to marshal event data")
		return
	}
	eventCopy := Event{
		Type:   event.Type,
		Data:   json.RawMessage(dataJSON),
		UserID: event.UserID,
	}

	for clientChan := range userClients {
		select {
		case clientChan <- eventCopy:
		default:
			utils.Log.WithField("uid", event.UserID).Warn("⚠️ [SSE] client channel blocked, event dropped")
		}
	}
}

func (b *Broker) GetClientCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[userID])
}

func (b *Broker) GetTotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, userClients := range b.clients {
		total += len(userClients)
	}
	return total
}
