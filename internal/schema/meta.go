package schema

import (
	"encoding/json"
	"fmt"
)

// PostMeta is the post.json snapshot written on pull.
type PostMeta struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// Validate checks if the PostMeta has valid field values.
func (m *PostMeta) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("id must be positive (got %d)", m.ID)
	}
	return nil
}

// Marshal renders the snapshot as pretty-printed JSON.
func (m *PostMeta) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post %d: %w", m.ID, err)
	}
	return data, nil
}

// UnmarshalPostMeta parses a post.json snapshot.
func UnmarshalPostMeta(data []byte) (*PostMeta, error) {
	var m PostMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse post metadata: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post metadata: %w", err)
	}
	return &m, nil
}
