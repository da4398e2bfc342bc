package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Person is the JSON element stored in the people column.
type Person struct {
	Name        string `json:"name"`
	LinkedInURL string `json:"linkedin_url"`
}

// Session models the persisted representation of a conference session.
type Session struct {
	ID                int64                      `gorm:"primaryKey;autoIncrement"`
	WebsiteIndex      int64                      `gorm:"column:website_index;not null;uniqueIndex"`
	Title             string                     `gorm:"type:text;not null;default:''"`
	Date              string                     `gorm:"type:text;not null;default:''"`
	Time              string                     `gorm:"column:time;type:text;not null;default:''"`
	Venue             string                     `gorm:"type:text;not null;default:''"`
	Room              string                     `gorm:"type:text;not null;default:''"`
	Speakers          string                     `gorm:"type:text;not null;default:''"`
	Description       string                     `gorm:"type:text;not null;default:''"`
	KnowledgePartners string                     `gorm:"type:text;not null;default:''"`
	WatchLiveLink     string                     `gorm:"type:text;not null;default:''"`
	Transcript        *string                    `gorm:"type:text;not null;default:''"`
	People            datatypes.JSONSlice[Person] `gorm:"not null;default:'[]'"`
	CreatedAt         time.Time                  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time                  `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}
