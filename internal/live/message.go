package live

import (
	"encoding/json"

	"github.com/Zachkp/devops-journey/internal/reveal"
)

// Message types on the wire.
const (
	TypeHello   = "hello"
	TypeToggle  = "toggle"
	TypeMetrics = "metrics"
	TypeReveal  = "reveal"
	TypeScroll  = "scroll"
)

// Message is the envelope of every server -> browser frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Hello struct {
	Session      string `json:"session"`
	TogglePeriod int64  `json:"togglePeriodMs"`
	TickerPeriod int64  `json:"tickerPeriodMs"`
}

type ToggleState struct {
	Side reveal.Side `json:"side"`
}

// Inbound is a browser -> server frame. Only scroll samples are understood.
type Inbound struct {
	Type string `json:"type"`
	reveal.ScrollSample
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Payload: payload})
}
