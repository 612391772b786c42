package noteservice

type CreateNoteRequest struct {
	UserID int64  `json:"user"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

type UpdateNoteRequest struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
