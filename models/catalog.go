package models

// Service is a bookable offering (tour, spa treatment, restaurant, transfer).
type Service struct {
	ID                 string          `bson:"id" json:"id"`
	TenantID           string          `bson:"tenantId" json:"tenantId"`
	Name               string          `bson:"name" json:"name"`
	Category           ServiceCategory `bson:"category" json:"category"`
	Description        string          `bson:"description,omitempty" json:"description,omitempty"`
	Available          bool            `bson:"available" json:"available"`
	AdvanceNoticeHours int             `bson:"advanceNoticeHours,omitempty" json:"advanceNoticeHours,omitempty"`
	MaxCapacity        int             `bson:"maxCapacity,omitempty" json:"maxCapacity,omitempty"` // 0 = unlimited
	Price              float64         `bson:"price,omitempty" json:"price,omitempty"`
}

// MenuItem is an orderable dish or drink.
type MenuItem struct {
	ID          string  `bson:"id" json:"id"`
	TenantID    string  `bson:"tenantId" json:"tenantId"`
	Name        string  `bson:"name" json:"name"`
	MealType    string  `bson:"mealType" json:"mealType"` // breakfast, lunch, dinner, all_day
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64 `bson:"price" json:"price"`
	Available   bool    `bson:"available" json:"available"`
}

// RequestItem is something housekeeping or another department can bring to a room.
type RequestItem struct {
	ID          string `bson:"id" json:"id"`
	TenantID    string `bson:"tenantId" json:"tenantId"`
	Name        string `bson:"name" json:"name"`
	Department  string `bson:"department" json:"department"`
	MaxQuantity int    `bson:"maxQuantity,omitempty" json:"maxQuantity,omitempty"`
	Restricted  bool   `bson:"restricted,omitempty" json:"restricted,omitempty"` // only for in-house guests
}

// CatalogSnapshot is one turn's view of the live catalog.
type CatalogSnapshot struct {
	Services     []Service     `json:"services"`
	MenuItems    []MenuItem    `json:"menuItems"`
	RequestItems []RequestItem `json:"requestItems"`
}

// ServiceNames lists available service names, optionally restricted to one category.
func (c CatalogSnapshot) ServiceNames(category ServiceCategory) []string {
	return ServiceNames(c.Services, category)
}

// AllNames lists every catalog name across services, menu items and request items.
func (c CatalogSnapshot) AllNames() []string {
	names := ServiceNames(c.Services, "")
	for _, m := range c.MenuItems {
		if m.Available {
			names = append(names, m.Name)
		}
	}
	for _, r := range c.RequestItems {
		names = append(names, r.Name)
	}
	return names
}

// ServiceNames lists the names of available services, optionally restricted to one category.
func ServiceNames(services []Service, category ServiceCategory) []string {
	var names []string
	for _, s := range services {
		if !s.Available {
			continue
		}
		if category != "" && s.Category != category {
			continue
		}
		names = append(names, s.Name)
	}
	return names
}
