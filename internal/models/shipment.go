package models

import "time"

const (
	ShipmentStatusPending   = "Pending"
	ShipmentStatusConfirmed = "Confirmed"
	ShipmentStatusInTransit = "In Transit"
	ShipmentStatusDelivered = "Delivered"
	ShipmentStatusCancelled = "Cancelled"
)

var ShipmentStatuses = []string{
	ShipmentStatusPending, ShipmentStatusConfirmed, ShipmentStatusInTransit,
	ShipmentStatusDelivered, ShipmentStatusCancelled,
}

var CargoTypes = []string{
	"General Cargo",
	"Fragile Items",
	"Electronics",
	"Documents",
	"Perishables",
	"Hazardous Materials",
	"Automotive Parts",
	"Textiles",
	"Machinery",
	"Other",
}

type Dimensions struct {
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
}

type Shipment struct {
	ID                string     `bson:"_id,omitempty" json:"_id"`
	ShipmentNumber    string     `bson:"shipmentNumber" json:"shipmentNumber"`
	Origin            string     `bson:"origin" json:"origin"`
	Destination       string     `bson:"destination" json:"destination"`
	Weight            float64    `bson:"weight" json:"weight"`
	Dimensions        Dimensions `bson:"dimensions" json:"dimensions"`
	PreferredShipDate time.Time  `bson:"preferredShipDate" json:"preferredShipDate"`
	CargoType         string     `bson:"cargoType" json:"cargoType"`
	FullName          string     `bson:"fullName" json:"fullName"`
	Company           *string    `bson:"company,omitempty" json:"company,omitempty"`
	Email             string     `bson:"email" json:"email"`
	Phone             string     `bson:"phone" json:"phone"`
	Status            string     `bson:"status" json:"status"`
	EstimatedCost     float64    `bson:"estimatedCost" json:"estimatedCost"`
	ActualCost        *float64   `bson:"actualCost,omitempty" json:"actualCost,omitempty"`
	Notes             *string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// ShipmentFilter drives the paginated admin listing.
type ShipmentFilter struct {
	Status    string
	CargoType string
	Search    string
	Page      int
	Limit     int
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}
