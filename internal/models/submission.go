package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	KeyID          = "_id"
	KeySubmittedAt = "_submittedAt"
)

// TimeLayout is the millisecond ISO-8601 form used for _submittedAt.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Submission is stored as one flat JSON object: question ids map to string
// values next to the reserved _id and _submittedAt keys.
type Submission struct {
	ID          string
	SubmittedAt string
	Values      map[string]string
}

func (s Submission) Get(key string) string {
	return s.Values[key]
}

// Keys returns the question ids present in the record, sorted.
func (s Submission) Keys() []string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Submission) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(s.Values)+2)
	for k, v := range s.Values {
		flat[k] = v
	}
	if s.ID != "" {
		flat[KeyID] = s.ID
	}
	if s.SubmittedAt != "" {
		flat[KeySubmittedAt] = s.SubmittedAt
	}
	return json.Marshal(flat)
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal submission: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, msg := range raw {
		var v string
		if err := json.Unmarshal(msg, &v); err != nil {
			// Non-string values from hand-edited files keep their JSON text.
			v = string(msg)
		}
		switch k {
		case KeyID:
			s.ID = v
		case KeySubmittedAt:
			s.SubmittedAt = v
		default:
			values[k] = v
		}
	}
	s.Values = values
	return nil
}
