package model

import "time"

// ChangeEvent is published after a mutation commits so connected UIs can refresh.
type ChangeEvent struct {
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     uint      `json:"id"`
	At     time.Time `json:"at"`
}
