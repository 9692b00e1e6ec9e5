package service

import "storefront-order-service/internal/model"

type effect int

const (
	effectNone effect = iota
	effectShipmentNotice
)

type edge struct {
	from   model.Status
	action model.Action
}

type step struct {
	to     model.Status
	stamp  string // prefijo de <stamp>_at / <stamp>_by
	effect effect
}

// Tabla de transiciones. Una acción que no figure para el estado actual es un
// conflicto. delete no está acá: borra sin mirar el estado.
var transitions = map[edge]step{
	{model.StatusPaid, model.ActionAccept}:       {to: model.StatusProcessing, stamp: "accepted"},
	{model.StatusProcessing, model.ActionShip}:   {to: model.StatusShipped, stamp: "shipped", effect: effectShipmentNotice},
	{model.StatusPaid, model.ActionCancel}:       {to: model.StatusCanceled, stamp: "canceled"},
	{model.StatusProcessing, model.ActionCancel}: {to: model.StatusCanceled, stamp: "canceled"},
}

func nextStep(from model.Status, a model.Action) (step, bool) {
	s, ok := transitions[edge{from, a}]
	return s, ok
}
