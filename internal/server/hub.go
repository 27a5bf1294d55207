// Package server coordinates client registration, inbound message dispatch,
// and connection cleanup for the signaling service via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/Tyrowin/gosignal/internal/signaling"
)

type inboundMessage struct {
	client  *Client
	payload []byte
}

// Hub owns every live WebSocket client. Its Run loop is the single thread
// that feeds connection opens, inbound messages and closes to the
// dispatcher, one event at a time.
type Hub struct {
	clients    map[*Client]struct{}
	inbound    chan inboundMessage
	register   chan *Client
	unregister chan *Client
	dispatcher *signaling.Dispatcher
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// NewHub creates a Hub that dispatches through dispatcher.
func NewHub(dispatcher *signaling.Dispatcher, loggerFactory logging.LoggerFactory) *Hub {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:       make(map[*Client]struct{}),
		inbound:       make(chan inboundMessage),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		dispatcher:    dispatcher,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		loggerFactory: loggerFactory,
		log:           loggerFactory.NewLogger("hub"),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// registerClient hands a freshly upgraded client to the Run loop. It
// reports false when the hub is shutting down.
func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) deliverInbound(client *Client, payload []byte) bool {
	select {
	case h.inbound <- inboundMessage{client: client, payload: payload}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Run starts the hub's main event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case msg := <-h.inbound:
			h.dispatcher.HandleMessage(msg.client, msg.payload)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.log.Infof("Client connected from %s. Total clients: %d", client.addr, clientCount)

	h.dispatcher.HandleOpen(client)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if !ok {
		return
	}

	client.markClosed()
	h.dispatcher.HandleClose(client)
	h.log.Infof("Client disconnected from %s. Total clients: %d", client.addr, clientCount)
}

// shutdownClients closes every connection and runs disconnect handling for it.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, client := range clients {
		client.markClosed()
		h.dispatcher.HandleClose(client)
		client.closeSocket()
	}

	h.log.Infof("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
