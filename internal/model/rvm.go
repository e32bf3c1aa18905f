package model

import "time"

// DefaultLocation is assigned to machines created without an explicit location.
const DefaultLocation = "Cairo"

// RVM represents a reverse vending machine and its last known status.
// LastUsage stays nil until some external process reports a usage; nothing
// in this service sets it on its own.
type RVM struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Location  string     `gorm:"size:255;not null" json:"location"`
	IsActive  bool       `gorm:"not null;index" json:"is_active"`
	LastUsage *time.Time `gorm:"index" json:"last_usage"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`

	// Associations
	Subscriptions []*PushSubscription `gorm:"many2many:subscription_rvm_mapping;" json:"-"`
}

// TableName maps the model to the "rvms" table; gorm's default naming
// strategy would otherwise split the initialism into "r_vms".
func (RVM) TableName() string { return "rvms" }
