package models

import "time"

// FAQEntry is a tenant knowledge-base answer.
type FAQEntry struct {
	ID        string     `bson:"id" json:"id"`
	TenantID  string     `bson:"tenantId" json:"tenantId"`
	Question  string     `bson:"question" json:"question"`
	Answer    string     `bson:"answer" json:"answer"`
	Keywords  []string   `bson:"keywords,omitempty" json:"keywords,omitempty"`
	Hits      int        `bson:"hits" json:"hits"`
	LastHitAt *time.Time `bson:"lastHitAt,omitempty" json:"lastHitAt,omitempty"`
}
