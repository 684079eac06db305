package models

import "time"

// Session is the server-side half of a login. The cookie only carries a
// signed reference to ID; revoking the row logs the browser out.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"default:false;not null"`
	IP        string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether the session can still authenticate requests at now.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
