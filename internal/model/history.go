package model

import "time"

type Actor string

const (
	ActorSeller Actor = "seller"
	ActorBuyer  Actor = "buyer"
)

type HistoryAction string

const (
	ActionCreated            HistoryAction = "created"
	ActionNegotiationStarted HistoryAction = "negotiation_started"
	ActionEdited             HistoryAction = "edited"
	ActionBuyerJoined        HistoryAction = "buyer_joined"
	ActionApproved           HistoryAction = "approved"
	ActionDisapproved        HistoryAction = "disapproved"
	ActionRejected           HistoryAction = "rejected"
	ActionPaid               HistoryAction = "paid"
	ActionConfirmed          HistoryAction = "confirmed"
)

// NegotiationHistory - неизменяемая запись журнала переговоров.
// ID - ULID, поэтому лексикографический порядок совпадает с порядком создания.
type NegotiationHistory struct {
	ID     string        `gorm:"primaryKey;size:26"`
	RoomID string        `gorm:"size:36;not null;index"`
	Action HistoryAction `gorm:"size:32;not null"`
	Actor  Actor         `gorm:"size:16;not null"`
	Notes  string        `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (NegotiationHistory) TableName() string { return "negotiation_history" }
