package domain

import "math"

// Delivery fee schedule: a flat base fee covers the first few kilometres,
// then every started kilometre beyond that adds a fixed step.
const (
	DeliveryBaseFee   = 30
	DeliveryBaseKm    = 3.0
	DeliveryPerKmStep = 10
)

// DeliveryFee computes the delivery charge in whole rupees for a road
// distance of distanceKm. Distances at or under the base radius pay only
// the base fee; beyond it, each started kilometre adds a step, so the fee
// jumps at exact kilometre boundaries (3.0 km pays 30, 3.01 km pays 40).
func DeliveryFee(distanceKm float64) int {
	if distanceKm <= DeliveryBaseKm {
		return DeliveryBaseFee
	}
	extra := int(math.Ceil(distanceKm - DeliveryBaseKm))
	return DeliveryBaseFee + DeliveryPerKmStep*extra
}

// OrderTotal computes the grand total for a quantity of a priced variety plus
// an already-computed delivery charge. Quantities under the minimum price to
// zero because such orders are blocked, not discounted.
func OrderTotal(unitPrice, litres, deliveryCharge int) int {
	if litres < minOrderLitres {
		return 0
	}
	return unitPrice*litres + deliveryCharge
}
