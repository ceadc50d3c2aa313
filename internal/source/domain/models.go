package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeCSV          Type = "csv"
	TypeShopify      Type = "shopify"
	TypeGoogleSheets Type = "google_sheets"
	TypeMetaAds      Type = "meta_ads"
	TypeGoogleAds    Type = "google_ads"
	TypeTikTokAds    Type = "tiktok_ads"
	TypeSnapchatAds  Type = "snapchat_ads"
	TypeDex          Type = "dex"
	TypePostEx       Type = "postex"
)

var types = []Type{
	TypeCSV, TypeShopify, TypeGoogleSheets,
	TypeMetaAds, TypeGoogleAds, TypeTikTokAds, TypeSnapchatAds,
	TypeDex, TypePostEx,
}

func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

func (t Type) Valid() bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// IsAdPlatform reports whether rows of this source are ad insights.
func (t Type) IsAdPlatform() bool {
	switch t {
	case TypeMetaAds, TypeGoogleAds, TypeTikTokAds, TypeSnapchatAds:
		return true
	default:
		return false
	}
}

// IsCourier reports whether the source is a logistics feed.
func (t Type) IsCourier() bool {
	return t == TypeDex || t == TypePostEx
}

// Syncable reports whether the source is refreshed by the scheduler.
func (t Type) Syncable() bool {
	return t != TypeCSV
}

type Status string

const (
	StatusConnected Status = "connected"
	StatusSyncing   Status = "syncing"
	StatusError     Status = "error"
)

// CollectiveView selects the union of every source.
const CollectiveView = "collective"

type DataSource struct {
	ID              string                      `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Type            Type                        `gorm:"type:varchar(32);not null" json:"type"`
	Name            string                      `gorm:"not null" json:"name"`
	Currency        string                      `gorm:"type:varchar(8)" json:"currency"`
	Status          Status                      `gorm:"type:varchar(16);not null" json:"status"`
	LastError       string                      `json:"lastError,omitempty"`
	LastSync        *time.Time                  `json:"lastSync,omitempty"`
	LinkedSourceIDs datatypes.JSONSlice[string] `gorm:"column:linked_source_ids" json:"linkedSourceIds"`
	Config          datatypes.JSONMap           `json:"config,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`

	RecordCount int      `gorm:"-" json:"recordCount"`
	Columns     []string `gorm:"-" json:"columns"`
}

func (DataSource) TableName() string { return "data_sources" }

// IsLinked reports whether adID is attributed to this source.
func (d DataSource) IsLinked(adID string) bool {
	for _, id := range d.LinkedSourceIDs {
		if id == adID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with d.
func (d DataSource) Clone() DataSource {
	out := d
	if d.LinkedSourceIDs != nil {
		out.LinkedSourceIDs = append(datatypes.JSONSlice[string]{}, d.LinkedSourceIDs...)
	}
	if d.Config != nil {
		out.Config = make(datatypes.JSONMap, len(d.Config))
		for k, v := range d.Config {
			out.Config[k] = v
		}
	}
	if d.Columns != nil {
		out.Columns = append([]string(nil), d.Columns...)
	}
	if d.LastSync != nil {
		ts := *d.LastSync
		out.LastSync = &ts
	}
	return out
}
