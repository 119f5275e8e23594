package models

import (
	"encoding/json"
	"time"
)

const (
	TrackingStatusPending   = "Pending"
	TrackingStatusInTransit = "In Transit"
	TrackingStatusDelivered = "Delivered"
)

var TrackingStatuses = []string{TrackingStatusPending, TrackingStatusInTransit, TrackingStatusDelivered}

type Party struct {
	Name  *string `bson:"name,omitempty" json:"name,omitempty"`
	Email *string `bson:"email,omitempty" json:"email,omitempty"`
	Phone *string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type TimelineEvent struct {
	Date      time.Time `bson:"date" json:"date"`
	Status    string    `bson:"status" json:"status"`
	Location  *string   `bson:"location,omitempty" json:"location,omitempty"`
	Completed bool      `bson:"completed" json:"completed"`
	Note      *string   `bson:"note,omitempty" json:"note,omitempty"`
}

// Tracking is a shipment-tracking record. Fields the service does not know
// about are kept in Extra and stored/rendered inline with the known ones.
type Tracking struct {
	ID                string          `bson:"_id,omitempty" json:"_id"`
	TrackingNumber    string          `bson:"trackingNumber" json:"trackingNumber"`
	CurrentLocation   *string         `bson:"currentLocation,omitempty" json:"currentLocation,omitempty"`
	DeliveryLocation  *string         `bson:"deliveryLocation,omitempty" json:"deliveryLocation,omitempty"`
	EstimatedDelivery *time.Time      `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	Status            string          `bson:"status" json:"status"`
	Progress          float64         `bson:"progress" json:"progress"`
	Sender            *Party          `bson:"sender,omitempty" json:"sender,omitempty"`
	Receiver          *Party          `bson:"receiver,omitempty" json:"receiver,omitempty"`
	ProductName       *string         `bson:"productName,omitempty" json:"productName,omitempty"`
	TypeOfShipment    *string         `bson:"typeOfShipment,omitempty" json:"typeOfShipment,omitempty"`
	Weight            *float64        `bson:"weight,omitempty" json:"weight,omitempty"`
	Quantity          *int64          `bson:"quantity,omitempty" json:"quantity,omitempty"`
	TotalFreight      float64         `bson:"totalFreight" json:"totalFreight"`
	Events            []TimelineEvent `bson:"events" json:"events"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`

	Extra map[string]any `bson:",inline" json:"-"`
}

// ReservedTrackingKeys are system-managed and never taken from request bodies.
var ReservedTrackingKeys = map[string]struct{}{
	"_id": {}, "id": {}, "createdAt": {}, "updatedAt": {}, "__v": {},
}

var trackingKnownKeys = map[string]struct{}{
	"_id": {}, "id": {}, "trackingNumber": {}, "currentLocation": {}, "deliveryLocation": {},
	"estimatedDelivery": {}, "status": {}, "progress": {}, "sender": {}, "receiver": {},
	"productName": {}, "typeOfShipment": {}, "weight": {}, "quantity": {}, "totalFreight": {},
	"events": {}, "createdAt": {}, "updatedAt": {},
}

func (t Tracking) MarshalJSON() ([]byte, error) {
	type alias Tracking
	if t.Events == nil {
		t.Events = []TimelineEvent{}
	}
	b, err := json.Marshal(alias(t))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["id"] = t.ID
	for k, v := range t.Extra {
		if _, known := trackingKnownKeys[k]; known {
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}

func (t *Tracking) UnmarshalJSON(b []byte) error {
	type alias Tracking
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range trackingKnownKeys {
		delete(raw, k)
	}
	delete(raw, "__v")
	a.Extra = nil
	if len(raw) > 0 {
		a.Extra = raw
	}
	*t = Tracking(a)
	return nil
}

type PartyPatch struct {
	Name  *string
	Email *string
	Phone *string
}

func (p *PartyPatch) apply(dst *Party) *Party {
	if dst == nil {
		dst = &Party{}
	}
	if p.Name != nil {
		dst.Name = p.Name
	}
	if p.Email != nil {
		dst.Email = p.Email
	}
	if p.Phone != nil {
		dst.Phone = p.Phone
	}
	return dst
}

func (p *PartyPatch) fields(prefix string, out map[string]any) {
	if p.Name != nil {
		out[prefix+".name"] = *p.Name
	}
	if p.Email != nil {
		out[prefix+".email"] = *p.Email
	}
	if p.Phone != nil {
		out[prefix+".phone"] = *p.Phone
	}
}

// TrackingPatch carries validated fields. A nil slot means "not supplied".
type TrackingPatch struct {
	TrackingNumber    *string
	CurrentLocation   *string
	DeliveryLocation  *string
	EstimatedDelivery *time.Time
	Status            *string
	Progress          *float64
	Sender            *PartyPatch
	Receiver          *PartyPatch
	ProductName       *string
	TypeOfShipment    *string
	Weight            *float64
	Quantity          *int64
	TotalFreight      *float64
	Events            *[]TimelineEvent
	Extra             map[string]any
}

// Apply copies every supplied slot onto t.
func (p *TrackingPatch) Apply(t *Tracking) {
	if p.TrackingNumber != nil {
		t.TrackingNumber = *p.TrackingNumber
	}
	if p.CurrentLocation != nil {
		t.CurrentLocation = p.CurrentLocation
	}
	if p.DeliveryLocation != nil {
		t.DeliveryLocation = p.DeliveryLocation
	}
	if p.EstimatedDelivery != nil {
		d := *p.EstimatedDelivery
		t.EstimatedDelivery = &d
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Sender != nil {
		t.Sender = p.Sender.apply(t.Sender)
	}
	if p.Receiver != nil {
		t.Receiver = p.Receiver.apply(t.Receiver)
	}
	if p.ProductName != nil {
		t.ProductName = p.ProductName
	}
	if p.TypeOfShipment != nil {
		t.TypeOfShipment = p.TypeOfShipment
	}
	if p.Weight != nil {
		w := *p.Weight
		t.Weight = &w
	}
	if p.Quantity != nil {
		q := *p.Quantity
		t.Quantity = &q
	}
	if p.TotalFreight != nil {
		t.TotalFreight = *p.TotalFreight
	}
	if p.Events != nil {
		t.Events = make([]TimelineEvent, len(*p.Events))
		copy(t.Events, *p.Events)
	}
	if len(p.Extra) > 0 {
		if t.Extra == nil {
			t.Extra = make(map[string]any, len(p.Extra))
		}
		for k, v := range p.Extra {
			t.Extra[k] = v
		}
	}
}

// Fields flattens the patch into store field paths. Nested parties are
// addressed per sub-field so an update never wipes siblings it did not carry.
func (p *TrackingPatch) Fields() map[string]any {
	out := make(map[string]any)
	if p.TrackingNumber != nil {
		out["trackingNumber"] = *p.TrackingNumber
	}
	if p.CurrentLocation != nil {
		out["currentLocation"] = *p.CurrentLocation
	}
	if p.DeliveryLocation != nil {
		out["deliveryLocation"] = *p.DeliveryLocation
	}
	if p.EstimatedDelivery != nil {
		out["estimatedDelivery"] = *p.EstimatedDelivery
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.Progress != nil {
		out["progress"] = *p.Progress
	}
	if p.Sender != nil {
		p.Sender.fields("sender", out)
	}
	if p.Receiver != nil {
		p.Receiver.fields("receiver", out)
	}
	if p.ProductName != nil {
		out["productName"] = *p.ProductName
	}
	if p.TypeOfShipment != nil {
		out["typeOfShipment"] = *p.TypeOfShipment
	}
	if p.Weight != nil {
		out["weight"] = *p.Weight
	}
	if p.Quantity != nil {
		out["quantity"] = *p.Quantity
	}
	if p.TotalFreight != nil {
		out["totalFreight"] = *p.TotalFreight
	}
	if p.Events != nil {
		evs := *p.Events
		if evs == nil {
			evs = []TimelineEvent{}
		}
		out["events"] = evs
	}
	for k, v := range p.Extra {
		out[k] = v
	}
	return out
}
