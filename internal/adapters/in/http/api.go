package http

import "time"

// Error is the uniform error body returned by every endpoint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SubmitOrderRequest is the body of POST /api/v1/orders. OrderID is
// optional; when absent the server assigns one.
type SubmitOrderRequest struct {
	OrderID    string  `json:"order_id,omitempty"`
	CustomerID string  `json:"customer_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"address"`
	FuelLiters float64 `json:"fuel_liters"`
}

// SubmitOrderResponse confirms a submitted order.
type SubmitOrderResponse struct {
	OrderID string `json:"order_id"`
}

// AssignmentView is one assignment in dispatch scope.
type AssignmentView struct {
	OrderID         string  `json:"order_id"`
	CustomerID      string  `json:"customer_id"`
	Status          string  `json:"status"`
	DriverID        string  `json:"driver_id,omitempty"`
	OfferedDriverID string  `json:"offered_driver_id,omitempty"`
	OfferRound      int     `json:"offer_round"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Address         string  `json:"address"`
	FuelLiters      float64 `json:"fuel_liters"`
}

// MilestoneView is one recorded delivery milestone.
type MilestoneView struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	DriverID   string    `json:"driver_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CustomerOrderView is one order record in a customer's history.
type CustomerOrderView struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	DriverID   string    `json:"driver_id,omitempty"`
	Address    string    `json:"address"`
	FuelLiters float64   `json:"fuel_liters"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FleetDriverView is one tracked driver in the fleet view. EtaSeconds is
// only set for drivers engaged on an order, estimated from the current
// position and speed.
type FleetDriverView struct {
	DriverID           string   `json:"driver_id"`
	Availability       string   `json:"availability"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Heading            float64  `json:"heading"`
	SpeedKmh           float64  `json:"speed_kmh"`
	AccuracyM          float64  `json:"accuracy_m"`
	SecondsSinceUpdate float64  `json:"seconds_since_update"`
	EtaSeconds         *float64 `json:"eta_seconds,omitempty"`
}
