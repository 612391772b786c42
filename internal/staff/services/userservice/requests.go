package userservice

type CreateUserRequest struct {
	Username string   `json:"userName"` //nolint:tagliatelle
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type UpdateUserRequest struct {
	ID       int64    `json:"id"`
	Username string   `json:"userName"` //nolint:tagliatelle
	Roles    []string `json:"roles"`
	Active   bool     `json:"active"`
	Password string   `json:"password"`
}
