package hub

import (
	"encoding/json"

	"livecart/internal/models"
)

// Event names carried on the realtime channel. The update-* events flow
// client to server; the rest flow server to client.
const (
	EventProducts       = "products"
	EventMessages       = "messages"
	EventUpdateProducts = "update-products"
	EventUpdateChat     = "update-chat"
	EventError          = "error"
)

// Envelope is the JSON frame exchanged on the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatPayload is the client-side shape of an update-chat event.
type ChatPayload struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (p ChatPayload) toModel() models.ChatMessage {
	return models.ChatMessage{Author: p.Author, Content: p.Content}
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
