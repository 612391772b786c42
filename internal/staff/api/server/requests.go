package server

// Request bodies use pointer fields so that a missing field is
// distinguishable from a zero value; "active" in particular must be
// present and strictly boolean on update.

type createUserRequest struct {
	Username *string   `json:"userName"` //nolint:tagliatelle
	Password *string   `json:"password"`
	Roles    *[]string `json:"roles"`
}

type updateUserRequest struct {
	ID       *int64    `json:"id"`
	Username *string   `json:"userName"` //nolint:tagliatelle
	Roles    *[]string `json:"roles"`
	Active   *bool     `json:"active"`
	Password *string   `json:"password"`
}

type deleteUserRequest struct {
	ID *int64 `json:"id"`
}

type createNoteRequest struct {
	UserID *int64  `json:"user"`
	Title  *string `json:"title"`
	Text   *string `json:"text"`
}

type updateNoteRequest struct {
	ID        *int64  `json:"id"`
	UserID    *int64  `json:"user"`
	Title     *string `json:"title"`
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

type deleteNoteRequest struct {
	ID *int64 `json:"id"`
}

type loginRequest struct {
	Username *string `json:"userName"` //nolint:tagliatelle
	Password *string `json:"password"`
}
