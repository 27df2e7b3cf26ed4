package models

// Severity of a business-rule violation.
type Severity string

const (
	SeverityBlock   Severity = "BLOCK"
	SeverityWarning Severity = "WARNING"
)

// BusinessRule constrains an intent for a tenant. Empty Intent/Category match anything.
type BusinessRule struct {
	ID        string      `bson:"id" json:"id"`
	TenantID  string      `bson:"tenantId" json:"tenantId"`
	Name      string      `bson:"name" json:"name"`
	Intent    string      `bson:"intent,omitempty" json:"intent,omitempty"`
	Category  string      `bson:"category,omitempty" json:"category,omitempty"`
	Severity  Severity    `bson:"severity" json:"severity"`
	FromHour  *int        `bson:"fromHour,omitempty" json:"fromHour,omitempty"` // allowed window start, local hour
	ToHour    *int        `bson:"toHour,omitempty" json:"toHour,omitempty"`     // allowed window end (exclusive)
	Lifecycle []Lifecycle `bson:"lifecycle,omitempty" json:"lifecycle,omitempty"` // allowed guest lifecycles
	Message   string      `bson:"message" json:"message"`
	Enabled   bool        `bson:"enabled" json:"enabled"`
}

// RequiredFieldsRule overrides the default required booking fields.
type RequiredFieldsRule struct {
	ID        string          `bson:"id" json:"id"`
	TenantID  string          `bson:"tenantId" json:"tenantId"`
	Category  ServiceCategory `bson:"category" json:"category"`
	ServiceID string          `bson:"serviceId" json:"serviceId,omitempty"` // empty = whole category
	Fields    []string        `bson:"fields" json:"fields"`
}

// RuleViolation is the outcome of a failed rule.
type RuleViolation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
