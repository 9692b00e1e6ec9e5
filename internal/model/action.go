package model

import (
	"errors"
	"strings"
)

// Action es una acción administrativa sobre una orden.
type Action string

const (
	ActionAccept Action = "accept"
	ActionShip   Action = "ship"
	ActionCancel Action = "cancel"
	ActionDelete Action = "delete"
)

var ErrInvalidAction = errors.New("invalid action")

// ParseAction valida el literal que llega por HTTP. Cualquier otro valor es
// rechazado antes de tocar la base.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAccept, ActionShip, ActionCancel, ActionDelete:
		return a, nil
	}
	return "", ErrInvalidAction
}
