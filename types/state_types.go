package types

import "time"

// ConvStep names a step in a multi-step conversation flow. The captured
// input so far travels with the step in ConvState.Data.
type ConvStep string

const (
	StepNone            ConvStep = ""
	StepAwaitQuantity   ConvStep = "await_quantity"
	StepAwaitPromo      ConvStep = "await_promo"
	StepAwaitFeedback   ConvStep = "await_feedback"
	StepConfirmCheckout ConvStep = "confirm_checkout"
)

type ConvState struct {
	UserID    int64             `json:"user_id"`
	Step      ConvStep          `json:"step"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type StateStore interface {
	GetState(userID int64) (*ConvState, error)
	SetState(state *ConvState) error
	ClearState(userID int64) error

	GetLang(userID int64) (string, error)
	SetLang(userID int64, lang string) error
}
