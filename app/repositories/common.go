package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	// PostKeyPrefix namespaces post records in the store.
	PostKeyPrefix = "post:"
)

// newPostID returns a time-ordered identifier so that key iteration
// follows insertion order.
func newPostID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate post id: %w", err)
	}
	return id.String(), nil
}

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
