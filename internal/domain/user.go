package domain

import "time"

// User is a chat user that has talked to the bot
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	FirstSeen time.Time
}

// Settings holds per-user delivery preferences
type Settings struct {
	AutoShort  bool
	AutoMirror bool
}

// Setting names accepted by ToggleSetting
const (
	SettingAutoShort  = "auto_short"
	SettingAutoMirror = "auto_mirror"
)
