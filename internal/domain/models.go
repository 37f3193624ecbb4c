// Package domain defines the persistence models for users and conversation
// turns. These types are mapped with GORM and form the core data layer of
// the assistant.
package domain

import "time"

// User is a registered account. Created at registration, read at login,
// immutable afterwards. The password column stores only the bcrypt hash,
// never clear text, and is excluded from every JSON response.
type User struct {
	ID           string    `json:"_id"   gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name"  gorm:"type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"     gorm:"column:password;type:varchar(120);not null"`
	CreatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Turn is one request/response exchange, persisted exactly once per chat
// interaction and never mutated. Rows are only removed by the bulk
// clear-history operation. The JSON shape matches the wire contract:
// {user_id, message, bot_reply, emotion, timestamp}; the store-assigned ID
// stays internal.
type Turn struct {
	ID        string    `json:"-"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;index:idx_user_turns,priority:1"`
	Message   string    `json:"message"   gorm:"type:text;not null"`
	BotReply  string    `json:"bot_reply" gorm:"type:text;not null"`
	Emotion   string    `json:"emotion"   gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index:idx_user_turns,priority:2"`
}

// TableName returns the database table name for Turn.
func (Turn) TableName() string { return "turns" }
