package candidate

import (
	"encoding/json"
	"fmt"
	"os"
)

// FromFile loads a profiles dump produced by the importer.
func FromFile(path string) ([]*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candidates file: %w", err)
	}
	defer file.Close()

	var profiles []*Profile
	if err := json.NewDecoder(file).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decoding candidates file: %w", err)
	}
	return profiles, nil
}

// SaveToFile writes the profiles as an importable dump.
func SaveToFile(path string, profiles []*Profile) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating candidates file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return fmt.Errorf("encoding candidates file: %w", err)
	}
	return nil
}
