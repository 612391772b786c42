package models

import (
	"time"
)

type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	Username  string    `json:"username,omitempty"`
	Ticket    int64     `json:"ticket"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"` //nolint:tagliatelle
	UpdatedAt time.Time `json:"updated_at"` //nolint:tagliatelle
}
