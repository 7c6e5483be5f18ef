package types

import (
	"fmt"
	"time"
)

// DealStatus represents the lifecycle state of a deal record
type DealStatus string

const (
	DealStatusOpen     DealStatus = "open"
	DealStatusPending  DealStatus = "pending"
	DealStatusWon      DealStatus = "won"
	DealStatusLost     DealStatus = "lost"
	DealStatusRejected DealStatus = "rejected"
)

// IsValid checks if the deal status is a known value
func (s DealStatus) IsValid() bool {
	switch s {
	case DealStatusOpen, DealStatusPending, DealStatusWon, DealStatusLost, DealStatusRejected:
		return true
	}
	return false
}

// EntityType identifies which kind of record a match or cluster refers to
type EntityType string

const (
	EntityDeal    EntityType = "deal"
	EntityVendor  EntityType = "vendor"
	EntityContact EntityType = "contact"
)

// IsValid checks if the entity type is a known value
func (e EntityType) IsValid() bool {
	switch e {
	case EntityDeal, EntityVendor, EntityContact:
		return true
	}
	return false
}

// Contact is a person attached to a deal
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Deal represents a sales record extracted from a source file or already
// present in the store. ID is empty for records that have not been persisted
// yet. Optional numeric and date fields use pointers so that "absent" is
// distinguishable from zero.
type Deal struct {
	ID           string            `json:"id,omitempty"`
	Name         string            `json:"name"`
	CustomerName string            `json:"customer_name,omitempty"`
	Value        *float64          `json:"value,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	CloseDate    *time.Time        `json:"close_date,omitempty"`
	RegisteredAt *time.Time        `json:"registered_at,omitempty"`
	VendorID     string            `json:"vendor_id,omitempty"`
	VendorName   string            `json:"vendor_name,omitempty"`
	Products     []string          `json:"products,omitempty"`
	Contacts     []Contact         `json:"contacts,omitempty"`
	Description  string            `json:"description,omitempty"`
	Status       DealStatus        `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Validate checks if the deal has valid field values
func (d *Deal) Validate() error {
	if len(d.Name) == 0 {
		return fmt.Errorf("name is required")
	}
	if len(d.Name) > 500 {
		return fmt.Errorf("name must be 500 characters or less (got %d)", len(d.Name))
	}
	if d.Status != "" && !d.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", d.Status)
	}
	if d.Value != nil && *d.Value < 0 {
		return fmt.Errorf("value cannot be negative (got %.2f)", *d.Value)
	}
	return nil
}

// ContactEmails returns the contact email addresses. Contacts without an
// email are skipped.
func (d *Deal) ContactEmails() []string {
	emails := make([]string, 0, len(d.Contacts))
	for _, c := range d.Contacts {
		if c.Email != "" {
			emails = append(emails, c.Email)
		}
	}
	return emails
}
