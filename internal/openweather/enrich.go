package openweather

import (
	"encoding/json"
	"fmt"
)

// ParseUVIndex decodes the UV index body. JSON only.
func ParseUVIndex(body []byte) (float64, error) {
	if env, ok := DetectEnvelope(body); ok {
		return 0, env
	}

	var doc struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decoding uv index: %w", err)
	}
	if doc.Value == nil {
		return 0, &MalformedError{Field: "uv value"}
	}
	return *doc.Value, nil
}

// ParseOzone decodes the ozone column density body. JSON only; the value
// is in Dobson units.
func ParseOzone(body []byte) (float64, error) {
	if env, ok := DetectEnvelope(body); ok {
		return 0, env
	}

	var doc struct {
		Data *float64 `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decoding ozone index: %w", err)
	}
	if doc.Data == nil {
		return 0, &MalformedError{Field: "ozone data"}
	}
	return *doc.Data, nil
}
