package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kaptinlin/jsonrepair"
)

// ReadJSON reads the file at path and unmarshals it into v. If strict parsing
// fails, the content is run through a JSON repairer and parsed once more
// before the error is reported.
func ReadJSON(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	parseErr := json.Unmarshal(content, v)
	if parseErr == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(content))
	if repairErr != nil {
		return fmt.Errorf("config: parsing %s: %w (repair also failed: %v)", path, parseErr, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("config: parsing repaired %s: %w", path, err)
	}
	return nil
}

// LoadStore loads a dataState.json document.
func LoadStore(path string) (Store, error) {
	var store Store
	if err := ReadJSON(path, &store); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadTypeState loads a genState.json document.
func LoadTypeState(path string) (TypeState, error) {
	var state TypeState
	if err := ReadJSON(path, &state); err != nil {
		return nil, err
	}
	return state, nil
}
