package geo

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadAreas reads a gazetteer file: a JSON array of area display names.
func LoadAreas(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geo: failed to read gazetteer: %w", err)
	}
	var areas []string
	if err := json.Unmarshal(data, &areas); err != nil {
		return nil, fmt.Errorf("geo: failed to parse gazetteer: %w", err)
	}
	return areas, nil
}
