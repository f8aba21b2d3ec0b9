// Package hub implements the realtime core: it owns the live connection
// set and the in-memory product catalog, relays chat and catalog events to
// every connected peer, and persists each event through the store
// collaborators. All state mutation happens on a single event loop; the
// in-memory catalog is the broadcast source of truth and persistence is
// best-effort unless configured otherwise.
package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"livecart/internal/store"
)

// PersistPolicy names what the hub does when a storage write fails.
type PersistPolicy string

const (
	// BestEffort logs the failure and broadcasts anyway. Clients can
	// observe state that never became durable.
	BestEffort PersistPolicy = "best-effort"
	// Strict persists before broadcasting and drops the update on
	// failure, notifying only the sender.
	Strict PersistPolicy = "strict"
)

// ParsePolicy maps a config string to a policy, defaulting to BestEffort.
func ParsePolicy(s string) PersistPolicy {
	if s == string(Strict) {
		return Strict
	}
	return BestEffort
}

type catalogUpdate struct {
	sender *Client
	entry  store.CatalogEntry
}

type chatUpdate struct {
	sender  *Client
	payload ChatPayload
}

// delivery routes a marshaled frame back onto the event loop. A nil
// target means broadcast to the whole live set.
type delivery struct {
	target  *Client
	payload []byte
}

// Hub relays events between connected peers and backing storage.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	catalog    chan catalogUpdate
	chat       chan chatUpdate
	deliveries chan delivery

	// owned exclusively by the Run loop
	clients  map[*Client]bool
	products []store.CatalogEntry

	messages   store.MessageLog
	catalogLog store.CatalogLog
	policy     PersistPolicy

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a hub wired to the given logs. Run must be started in its
// own goroutine before clients are registered.
func New(messages store.MessageLog, catalogLog store.CatalogLog, policy PersistPolicy) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		catalog:    make(chan catalogUpdate),
		chat:       make(chan chatUpdate),
		deliveries: make(chan delivery, 64),
		clients:    make(map[*Client]bool),
		products:   []store.CatalogEntry{},
		messages:   messages,
		catalogLog: catalogLog,
		policy:     policy,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a new connection to the event loop.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// Unregister removes a connection from the live set.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// SubmitCatalogUpdate queues one catalog entry from the given sender.
func (h *Hub) SubmitCatalogUpdate(sender *Client, entry store.CatalogEntry) {
	select {
	case h.catalog <- catalogUpdate{sender: sender, entry: entry}:
	case <-h.ctx.Done():
	}
}

// SubmitChatMessage queues one chat message from the given sender.
func (h *Hub) SubmitChatMessage(sender *Client, payload ChatPayload) {
	select {
	case h.chat <- chatUpdate{sender: sender, payload: payload}:
	case <-h.ctx.Done():
	}
}

// Run is the hub's event loop. Every mutation of the client set and the
// product slice happens here, so no locking is needed around either.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("hub: ignoring nil client registration")
				continue
			}
			h.onConnect(client)

		case client := <-h.unregister:
			h.onDisconnect(client)

		case upd := <-h.catalog:
			h.onCatalogUpdate(upd)

		case upd := <-h.chat:
			h.onChatMessage(upd)

		case d := <-h.deliveries:
			if d.target != nil {
				h.send(d.target, d.payload)
			} else {
				h.broadcast(d.payload)
			}
		}
	}
}

// onConnect adds the connection to the live set and immediately pushes
// the current catalog snapshot plus the full chat transcript. The
// transcript read is one storage round-trip per connection event.
func (h *Hub) onConnect(client *Client) {
	client.closed = false
	h.clients[client] = true
	log.Printf("hub: client %s connected (%d live)", client.addr, len(h.clients))

	if client.conn != nil {
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

	if frame, err := marshalEvent(EventProducts, h.products); err == nil {
		h.send(client, frame)
	} else {
		log.Printf("hub: marshal products snapshot: %v", err)
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.loadAndDeliverTranscript(client)
	}()
}

func (h *Hub) onDisconnect(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	log.Printf("hub: client %s disconnected (%d live)", client.addr, len(h.clients))
}

// onCatalogUpdate appends the entry in arrival order, persists it, and
// fans the full updated slice out to every live connection including the
// sender. Under best-effort the persistence runs detached and its result
// never blocks or alters the broadcast; under strict a failed write drops
// the update before anyone sees it.
func (h *Hub) onCatalogUpdate(upd catalogUpdate) {
	if h.policy == Strict {
		if err := h.persistCatalogEntry(upd.entry); err != nil {
			log.Printf("hub: catalog persist failed, dropping update: %v", err)
			h.notifySender(upd.sender, "catalog update not stored")
			return
		}
		h.products = append(h.products, upd.entry)
	} else {
		h.products = append(h.products, upd.entry)
		h.wg.Add(1)
		go func(entry store.CatalogEntry) {
			defer h.wg.Done()
			if err := h.persistCatalogEntry(entry); err != nil {
				log.Printf("hub: catalog persist failed (continuing): %v", err)
			}
		}(upd.entry)
	}

	frame, err := marshalEvent(EventProducts, h.products)
	if err != nil {
		log.Printf("hub: marshal products: %v", err)
		return
	}
	h.broadcast(frame)
}

// persistCatalogEntry appends one entry to the catalog log. The schema is
// only guaranteed to exist after the first write, hence EnsureSchema on
// every call. The log grows by the delta, not by a rewrite of the whole
// in-memory slice.
func (h *Hub) persistCatalogEntry(entry store.CatalogEntry) error {
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	if err := h.catalogLog.EnsureSchema(ctx); err != nil {
		return err
	}
	return h.catalogLog.AppendBatch(ctx, []store.CatalogEntry{entry})
}

// onChatMessage persists the entry, re-reads the full transcript, and
// broadcasts it. The read-after-write happens off the loop, so the order
// clients observe is whatever ListAll returns once the append lands.
func (h *Hub) onChatMessage(upd chatUpdate) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFn()

		msg := upd.payload.toModel()
		if err := h.messages.Append(ctx, &msg); err != nil {
			if h.policy == Strict {
				log.Printf("hub: chat persist failed, dropping message: %v", err)
				h.deliverError(upd.sender, "chat message not stored")
				return
			}
			log.Printf("hub: chat persist failed (continuing): %v", err)
		}

		transcript, err := h.messages.ListAll(ctx)
		if err != nil {
			log.Printf("hub: read transcript: %v", err)
			return
		}

		frame, err := marshalEvent(EventMessages, transcript)
		if err != nil {
			log.Printf("hub: marshal transcript: %v", err)
			return
		}
		h.deliver(delivery{payload: frame})
	}()
}

func (h *Hub) loadAndDeliverTranscript(client *Client) {
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	transcript, err := h.messages.ListAll(ctx)
	if err != nil {
		log.Printf("hub: read transcript for %s: %v", client.addr, err)
		return
	}
	frame, err := marshalEvent(EventMessages, transcript)
	if err != nil {
		log.Printf("hub: marshal transcript: %v", err)
		return
	}
	h.deliver(delivery{target: client, payload: frame})
}

func (h *Hub) deliver(d delivery) {
	select {
	case h.deliveries <- d:
	case <-h.ctx.Done():
	}
}

func (h *Hub) deliverError(sender *Client, msg string) {
	if sender == nil {
		return
	}
	frame, err := marshalEvent(EventError, msg)
	if err != nil {
		return
	}
	h.deliver(delivery{target: sender, payload: frame})
}

func (h *Hub) notifySender(sender *Client, msg string) {
	if sender == nil {
		return
	}
	if frame, err := marshalEvent(EventError, msg); err == nil {
		h.send(sender, frame)
	}
}

// broadcast fans one frame out to every live connection.
func (h *Hub) broadcast(frame []byte) {
	var evicted []*Client
	for client := range h.clients {
		if !h.send(client, frame) {
			evicted = append(evicted, client)
		}
	}
	for _, client := range evicted {
		log.Printf("hub: client %s evicted, send buffer full", client.addr)
		h.onDisconnect(client)
	}
}

// send pushes a frame onto the client's buffered send channel. Only the
// event loop calls this, so the closed check cannot race the close.
func (h *Hub) send(client *Client, frame []byte) bool {
	if _, ok := h.clients[client]; !ok || client.closed {
		return false
	}
	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAllClients() {
	log.Printf("hub: closing %d client connections", len(h.clients))
	for client := range h.clients {
		delete(h.clients, client)
		client.closed = true
		close(client.send)
		if client.conn != nil {
			_ = client.conn.Close()
		}
	}
}

// Shutdown stops the event loop and waits for the pump and persistence
// goroutines to finish, up to the given timeout. Outstanding persistence
// operations run to completion; they are never cancelled on disconnect.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		log.Printf("hub: shutdown timeout, some goroutines still running")
		return context.DeadlineExceeded
	}
}
