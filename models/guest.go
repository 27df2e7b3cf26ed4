package models

import "time"

// Lifecycle is where a guest is relative to their stay.
type Lifecycle string

const (
	LifecycleUnregistered Lifecycle = "unregistered"
	LifecyclePreArrival   Lifecycle = "pre_arrival"
	LifecycleActive       Lifecycle = "active"
	LifecyclePostCheckout Lifecycle = "post_checkout"
)

// Stay is a guest's reservation at a tenant property.
type Stay struct {
	ID         string    `bson:"id" json:"id"`
	TenantID   string    `bson:"tenantId" json:"tenantId"`
	GuestPhone string    `bson:"guestPhone" json:"guestPhone"`
	GuestName  string    `bson:"guestName,omitempty" json:"guestName,omitempty"`
	Room       string    `bson:"room,omitempty" json:"room,omitempty"`
	CheckIn    time.Time `bson:"checkIn" json:"checkIn"`
	CheckOut   time.Time `bson:"checkOut" json:"checkOut"`
	Cancelled  bool      `bson:"cancelled,omitempty" json:"cancelled,omitempty"`
}

// GuestStatus is derived per turn and never persisted.
type GuestStatus struct {
	Lifecycle            Lifecycle `json:"lifecycle"`
	GuestName            string    `json:"guestName,omitempty"`
	Room                 string    `json:"room,omitempty"`
	CanRequestItems      bool      `json:"canRequestItems"`
	CanOrderFood         bool      `json:"canOrderFood"`
	CanBookServices      bool      `json:"canBookServices"`
	CanReportMaintenance bool      `json:"canReportMaintenance"`
	CanComplain          bool      `json:"canComplain"`
}
