package models

import "time"

// TrelloCredential is the Trello API token granted by a Trello member.
type TrelloCredential struct {
	OwnerID   string `gorm:"primaryKey"` // Trello member id
	Token     string
	Username  string
	FullName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bot is a RingCentral bot installation and its access token.
type Bot struct {
	ID        string `gorm:"primaryKey"`
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
