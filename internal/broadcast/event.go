package broadcast

import (
	"encoding/json"
	"time"
)

const (
	TypeRoomState         = "room_state"
	TypeNegotiationUpdate = "negotiation_update"
)

// Event - конверт сообщений, которые формирует сервер.
type Event struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message any    `json:"message,omitempty"`
}

// RoomState - снимок комнаты, который получает каждое новое подключение.
type RoomState struct {
	RoomHash        string  `json:"room_hash"`
	IsBuyerAssigned bool    `json:"is_buyer_assigned"`
	HasSeller       bool    `json:"has_seller"`
	HasBuyer        bool    `json:"has_buyer"`
	HasInvoice      bool    `json:"has_invoice"`
	InvoiceStatus   *string `json:"invoice_status"`
}

// Update - уведомление о совершённом переходе.
type Update struct {
	RoomHash  string    `json:"room_hash"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StateEvent кодирует снимок комнаты.
func StateEvent(s RoomState) ([]byte, error) {
	return json.Marshal(Event{Type: TypeRoomState, Data: s})
}

// UpdateEvent кодирует уведомление о переходе.
func UpdateEvent(u Update) ([]byte, error) {
	return json.Marshal(Event{Type: TypeNegotiationUpdate, Message: u})
}
