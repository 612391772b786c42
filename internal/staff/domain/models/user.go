package models

type User struct {
	ID           int64    `json:"id"`
	Username     string   `json:"userName"` //nolint:tagliatelle
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles"`
	Active       bool     `json:"active"`
}
