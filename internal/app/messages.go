package app

import (
	"time"

	"rover-radar.klederson.com/internal/bluetooth"
	"rover-radar.klederson.com/internal/command"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// EventMsg carries a driver event into the update loop after the session
// and radar have already consumed it.
type EventMsg bluetooth.Event

// PromptMsg asks the operator to confirm something.
type PromptMsg command.Prompt

type scanStartedMsg struct {
	started bool
}

type connectResultMsg struct {
	id  string
	err error
}

type disconnectResultMsg struct {
	err error
}

type dispatchResultMsg struct {
	intent command.Intent
	radar  bool
}

type pollResultMsg struct {
	err error
}
