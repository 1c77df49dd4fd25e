package services

import (
	"github.com/gobus/booking-backend/internal/models"
)

// PriceCalculator computes the total price for a reservation. It must be a
// pure function of its arguments: the orchestrator recomputes the price on
// retried executions and the results have to agree.
type PriceCalculator func(bus *models.Bus, route *models.Route, seatCount int) float64

// FlatRate returns a calculator that charges a fixed rate per seat,
// regardless of bus or route. Distance-based policies can replace it
// without touching the orchestrator.
func FlatRate(perSeat float64) PriceCalculator {
	return func(_ *models.Bus, _ *models.Route, seatCount int) float64 {
		return perSeat * float64(seatCount)
	}
}
