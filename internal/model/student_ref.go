package model

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// StudentRef accepts the two shapes a student reference arrives in at the API
// boundary: a bare id string, or a structured record carrying the id under
// "studentId". Both normalize to the same uuid, so membership comparisons
// downstream never have to care which form the client sent.
type StudentRef struct {
	ID uuid.UUID
}

type structuredStudentRef struct {
	StudentID string `json:"studentId"`
}

func (r *StudentRef) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		id, err := uuid.Parse(bare)
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	}

	var structured structuredStudentRef
	if err := json.Unmarshal(data, &structured); err != nil {
		return errors.New("student reference must be an id string or an object with studentId")
	}
	id, err := uuid.Parse(structured.StudentID)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (r StudentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID.String())
}
