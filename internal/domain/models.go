package domain

import "time"

// CategoryAll selects questions from every category.
const CategoryAll = "All"

// Question is a single trivia question. Immutable once fetched; a session
// owns its questions for the session's lifetime.
type Question struct {
	Text     string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// User identifies a chat participant together with the display-name fields
// the ledger keeps refreshed.
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// DisplayName prefers the username and falls back to first/last name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name
}

// Mention renders the user for in-chat announcements: @username when a
// username exists, the plain display name otherwise.
func (u User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.DisplayName()
}

// GameResult is one participant's outcome of a finished quiz, flushed to the
// score ledger when the session ends.
type GameResult struct {
	User   User
	ChatID string
	Points int
	Winner bool
}

// ScoreRow is the cumulative per-user-per-chat ledger record.
type ScoreRow struct {
	UserID      string
	ChatID      string
	Username    string
	FirstName   string
	LastName    string
	TotalScore  int
	GamesPlayed int
	Wins        int
	LastUpdated time.Time
}
