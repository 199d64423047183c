package collector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"TickSentinel/internal/model"
)

// AuthorizeRequest is the first message sent on every connection.
type AuthorizeRequest struct {
	Authorize string `json:"authorize"`
}

// TicksRequest subscribes to the whole instrument set in one call.
type TicksRequest struct {
	Ticks []string `json:"ticks"`
}

// APIError is the error object the feed attaches to failed requests.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Message is a decoded inbound frame. At most one of Error and Tick is
// usually set; frames carrying neither are acknowledgements.
type Message struct {
	MsgType string
	Error   *APIError
	Tick    *model.Tick
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type tickPayload struct {
	Symbol  string    `json:"symbol"`
	Epoch   int64     `json:"epoch"`
	Quote   flexFloat `json:"quote"`
	Ask     flexFloat `json:"ask"`
	Bid     flexFloat `json:"bid"`
	PipSize flexFloat `json:"pip_size"`
}

type rawMessage struct {
	MsgType string       `json:"msg_type"`
	Error   *APIError    `json:"error"`
	Tick    *tickPayload `json:"tick"`
}

func decodeMessage(data []byte) (Message, error) {
	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	msg := Message{MsgType: raw.MsgType, Error: raw.Error}
	if raw.Tick != nil {
		if raw.Tick.Symbol == "" {
			return Message{}, fmt.Errorf("decode message: tick without symbol")
		}
		msg.Tick = &model.Tick{
			Symbol:  raw.Tick.Symbol,
			Epoch:   raw.Tick.Epoch,
			Quote:   float64(raw.Tick.Quote),
			Ask:     float64(raw.Tick.Ask),
			Bid:     float64(raw.Tick.Bid),
			PipSize: float64(raw.Tick.PipSize),
		}
	}
	return msg, nil
}
