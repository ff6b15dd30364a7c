package server

import (
	"github.com/rustyeddy/papertrade/indicators"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/quest"
	"github.com/rustyeddy/papertrade/sim"
	"github.com/rustyeddy/papertrade/state"
)

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error string `json:"error"`
}

type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

type SessionRequest struct {
	Session string `json:"session"`
}

type ModeRequest struct {
	UIMode string `json:"uiMode"`
}

type QuestsResponse struct {
	Quests []quest.Quest `json:"quests"`
	Level  quest.Level   `json:"level"`
}

type IndicatorsResponse struct {
	Symbol   string            `json:"symbol"`
	Interval string            `json:"interval"`
	Range    string            `json:"range"`
	Lines    []indicators.Line `json:"lines"`
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Symbol    string         `json:"symbol"`
	Session   market.Session `json:"session"`
	InSession bool           `json:"inSession"`
	WSClients int            `json:"wsClients"`
}

// Update is pushed to websocket clients on connect and after every change.
// Event is nil for the initial snapshot.
type Update struct {
	Type      string          `json:"type"`
	Event     *sim.Event      `json:"event,omitempty"`
	State     state.State     `json:"state"`
	Valuation state.Valuation `json:"valuation"`
}

func newUpdate(st state.State, ev *sim.Event) Update {
	return Update{Type: "state", Event: ev, State: st, Valuation: st.Valuation()}
}
