package models

import (
	"bytes"
	"encoding/json"
)

// OptionalID is a nullable foreign key in a request body that remembers
// whether the field was present at all
type OptionalID struct {
	Set bool
	ID  *int64
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.ID = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}
