package actions

import (
	"strings"

	"concierge/models"

	"go.uber.org/zap"
)

// Thresholds are the minimum scanner scores per task type.
type Thresholds struct {
	Food        float64
	Item        float64
	Maintenance float64
	Complaint   float64
}

// Candidate is a validated request ready to become a task.
type Candidate struct {
	Type       models.TaskType
	Item       string
	Quantity   int
	Details    string
	Location   string // lost items only
	Department string
	Priority   models.Priority
	FromOracle bool
}

// Identity is the dedup key of the candidate.
func (c Candidate) Identity() string { return Identity(c.Type, c.Item) }

// Request converts the candidate into a task request for a conversation.
func (c Candidate) Request(tenantID, conversationID, room string) TaskRequest {
	var meta map[string]string
	if c.Details != "" || c.Location != "" {
		meta = map[string]string{}
		if c.Details != "" {
			meta["details"] = c.Details
		}
		if c.Location != "" {
			meta["location"] = c.Location
		}
	}
	return TaskRequest{
		TenantID:       tenantID,
		ConversationID: conversationID,
		Type:           c.Type,
		Item:           c.Item,
		Quantity:       c.Quantity,
		Room:           room,
		Department:     c.Department,
		Priority:       c.Priority,
		Metadata:       meta,
	}
}

// Extractor merges oracle directives with the deterministic scanner.
type Extractor struct {
	Thresholds Thresholds
	Logger     *zap.Logger
}

// Extract returns the requests found in a turn. Oracle directives are validated against the
// catalog; scanner hits run regardless and are dropped when a directive already covers them.
func (e *Extractor) Extract(message string, directives []models.ActionDirective, catalog models.CatalogSnapshot) []Candidate {
	var out []Candidate
	seen := map[string]bool{}

	for _, d := range directives {
		key := strings.ToLower(d.Type + "|" + strings.TrimSpace(d.Item) + "|" + strings.TrimSpace(d.Details))
		if seen[key] {
			continue
		}
		seen[key] = true

		c, ok := e.fromDirective(d, catalog)
		if !ok {
			e.Logger.Warn("Dropped directive not backed by the catalog",
				zap.String("type", d.Type), zap.String("item", d.Item))
			continue
		}
		out = append(out, c)
	}

	for _, h := range Scan(message, catalog) {
		if h.Score < e.threshold(h.Type) {
			continue
		}
		c := Candidate{
			Type:       h.Type,
			Item:       h.Item,
			Quantity:   h.Quantity,
			Department: h.Department,
			Priority:   priorityOf(h.Type),
		}
		if covered(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (e *Extractor) threshold(t models.TaskType) float64 {
	switch t {
	case models.TaskFoodOrder:
		return e.Thresholds.Food
	case models.TaskItemRequest:
		return e.Thresholds.Item
	case models.TaskMaintenance:
		return e.Thresholds.Maintenance
	case models.TaskComplaint:
		return e.Thresholds.Complaint
	}
	return 1
}

func (e *Extractor) fromDirective(d models.ActionDirective, catalog models.CatalogSnapshot) (Candidate, bool) {
	qty := d.Quantity
	if qty <= 0 {
		qty = 1
	}
	c := Candidate{Item: strings.TrimSpace(d.Item), Quantity: qty, Details: d.Details, FromOracle: true}
	switch d.Type {
	case models.DirectiveOrderFood:
		name, ok := matchName(c.Item, menuNames(catalog.MenuItems))
		if !ok {
			return Candidate{}, false
		}
		c.Type, c.Item, c.Department = models.TaskFoodOrder, name, models.DeptFoodAndBev
	case models.DirectiveRequestItem:
		var names []string
		for _, r := range catalog.RequestItems {
			names = append(names, r.Name)
		}
		name, ok := matchName(c.Item, names)
		if !ok {
			return Candidate{}, false
		}
		c.Type, c.Item, c.Department = models.TaskItemRequest, name, models.DeptHousekeeping
		for _, r := range catalog.RequestItems {
			if r.Name == name && r.Department != "" {
				c.Department = r.Department
			}
		}
	case models.DirectiveMaintenance:
		c.Type, c.Department = models.TaskMaintenance, models.DeptMaintenance
	case models.DirectiveComplaint:
		c.Type, c.Department = models.TaskComplaint, models.DeptGuestRel
	case models.DirectiveLostItem:
		c.Type, c.Department = models.TaskLostItem, models.DeptFrontDesk
		c.Location = strings.TrimSpace(d.Location)
	default:
		return Candidate{}, false
	}
	if c.Item == "" {
		return Candidate{}, false
	}
	c.Priority = priorityOf(c.Type)
	return c, true
}

// matchName finds the catalog spelling of name, comparing singular lower-case forms.
func matchName(name string, catalog []string) (string, bool) {
	want := Singular(strings.ToLower(strings.TrimSpace(name)))
	if want == "" {
		return "", false
	}
	for _, n := range catalog {
		if Singular(strings.ToLower(strings.TrimSpace(n))) == want {
			return n, true
		}
	}
	return "", false
}

// covered reports whether a directive already stands for the scanner hit. Maintenance and
// complaints are one per turn whatever wording each side used.
func covered(existing []Candidate, c Candidate) bool {
	for _, o := range existing {
		if o.Type != c.Type {
			continue
		}
		if o.Identity() == c.Identity() || c.Type == models.TaskMaintenance || c.Type == models.TaskComplaint {
			return true
		}
	}
	return false
}

func priorityOf(t models.TaskType) models.Priority {
	switch t {
	case models.TaskEmergency:
		return models.PriorityUrgent
	case models.TaskMaintenance, models.TaskComplaint:
		return models.PriorityHigh
	}
	return models.PriorityNormal
}
