package server

import (
	"encoding/json"
)

type Error struct {
	Message string `json:"message"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		se.Message = err.Error()

		b, err := json.Marshal(se)
		if err != nil {
			return []byte(`{
				"message": "marshal error"
			  }`)
		}

		return b
	}

	return b
}
