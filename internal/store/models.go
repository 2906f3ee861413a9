package store

import "time"

// User is a registered account. Passwords are stored as bcrypt hashes.
type User struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Email     string `gorm:"uniqueIndex"`
	Password  string
	CreatedAt time.Time
}

// Room is a durable collaboration space. AdminID is the user whose request
// caused the room to be created.
type Room struct {
	ID        string `gorm:"primaryKey"`
	Slug      string `gorm:"index"`
	AdminID   string
	CreatedAt time.Time
}

// Chat is one append-only event in a room's log. Text messages carry Message;
// drawing events carry the shape JSON in Shape and an empty Message. Rows are
// never mutated after creation.
type Chat struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	UserID    string
	Message   string
	Shape     []byte
	CreatedAt time.Time
}
