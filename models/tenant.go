package models

import "time"

// Tenant is a property using the concierge.
type Tenant struct {
	ID                 string `bson:"id" json:"id"`
	Name               string `bson:"name" json:"name"`
	Timezone           string `bson:"timezone" json:"timezone"` // IANA name, e.g. "Africa/Johannesburg"
	EmergencyPhone     string `bson:"emergencyPhone" json:"emergencyPhone"`
	FrontDeskPhone     string `bson:"frontDeskPhone" json:"frontDeskPhone"`
	WifiName           string `bson:"wifiName,omitempty" json:"wifiName,omitempty"`
	WifiPassword       string `bson:"wifiPassword,omitempty" json:"wifiPassword,omitempty"`
	CheckInTime        string `bson:"checkInTime" json:"checkInTime"`   // HH:MM
	CheckOutTime       string `bson:"checkOutTime" json:"checkOutTime"` // HH:MM
	BreakfastHours     string `bson:"breakfastHours,omitempty" json:"breakfastHours,omitempty"`
	LunchHours         string `bson:"lunchHours,omitempty" json:"lunchHours,omitempty"`
	DinnerHours        string `bson:"dinnerHours,omitempty" json:"dinnerHours,omitempty"`
	RoomServiceHours   string `bson:"roomServiceHours,omitempty" json:"roomServiceHours,omitempty"`
	DiningMaxPartySize int    `bson:"diningMaxPartySize,omitempty" json:"diningMaxPartySize,omitempty"`
	Active             bool   `bson:"active" json:"active"`
}

// Location resolves the tenant's timezone, falling back to UTC.
func (t Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
