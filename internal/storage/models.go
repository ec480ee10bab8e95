package storage

import "time"

// Provider holds metadata about a feed publisher.
type Provider struct {
	Key       string `json:"key" gorm:"primaryKey;column:key"`
	Name      string `json:"name" gorm:"column:name"`
	Region    string `json:"region" gorm:"column:region"`
	SourceURL string `json:"source_url" gorm:"column:source_url"`
	Encoding  string `json:"encoding" gorm:"column:encoding"`
}

// UsageSnapshot stores a previously assembled usage report for a provider.
type UsageSnapshot struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	Provider  string    `json:"provider" gorm:"column:provider;index:idx_usage_snapshots_provider_fetched_at"`
	Payload   []byte    `json:"payload" gorm:"column:payload"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at;index:idx_usage_snapshots_provider_fetched_at"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (UsageSnapshot) TableName() string { return "usage_snapshots" }
