package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

type (
	// DataMap holds the answer values captured during a run, keyed by step ID
	// or alias. Values are JSON-shaped: string, float64, bool, []any,
	// map[string]any, or nil
	DataMap map[Key]any

	dataPair struct {
		K string `json:"k"`
		V any    `json:"v"`
	}
)

var (
	ErrMarshalData = errors.New("failed to marshal data")
)

// Set creates a new DataMap with the specified key-value pair added
func (d DataMap) Set(key Key, value any) DataMap {
	if d == nil {
		return DataMap{key: value}
	}
	res := maps.Clone(d)
	res[key] = value
	return res
}

// Merge creates a new DataMap with all pairs from other applied over d
func (d DataMap) Merge(other DataMap) DataMap {
	res := maps.Clone(d)
	if res == nil {
		res = make(DataMap, len(other))
	}
	maps.Copy(res, other)
	return res
}

// Lookup resolves a key to its answer value. A direct hit wins; otherwise a
// dotted key traverses into an object-valued answer, so "dti.ratio" reads the
// "ratio" field of the object stored under "dti"
func (d DataMap) Lookup(key Key) (any, bool) {
	if val, ok := d[key]; ok {
		return val, true
	}
	head, rest, ok := strings.Cut(string(key), ".")
	if !ok {
		return nil, false
	}
	val, ok := d[Key(head)]
	if !ok {
		return nil, false
	}
	encoded, err := json.Marshal(val)
	if err != nil {
		return nil, false
	}
	res := gjson.GetBytes(encoded, rest)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// GetString retrieves a string value, returning defaultValue if not found or
// wrong type
func (d DataMap) GetString(key Key, defaultValue string) string {
	val, ok := d[key]
	if !ok {
		return defaultValue
	}
	str, ok := val.(string)
	if !ok {
		return defaultValue
	}
	return str
}

// GetBool retrieves a boolean value, returning defaultValue if not found or
// wrong type
func (d DataMap) GetBool(key Key, defaultValue bool) bool {
	val, ok := d[key]
	if !ok {
		return defaultValue
	}
	b, ok := val.(bool)
	if !ok {
		return defaultValue
	}
	return b
}

// GetNumber retrieves a numeric value, returning defaultValue if not found or
// wrong type. Supports both int and float64 (converting from JSON numbers)
func (d DataMap) GetNumber(key Key, defaultValue float64) float64 {
	val, ok := d[key]
	if !ok {
		return defaultValue
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int); ok {
		return float64(i)
	}
	return defaultValue
}

// HashKey computes a deterministic SHA256 hash key of the DataMap. Keys are
// sorted alphabetically to ensure consistent hashing regardless of map
// iteration order. Returns hex string (64 chars) for change detection
func (d DataMap) HashKey() (string, error) {
	if len(d) == 0 {
		return sha256Hex(""), nil
	}

	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]dataPair, len(keys))
	for i, k := range keys {
		pairs[i] = dataPair{K: string(k), V: d[k]}
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshalData, err)
	}

	return sha256Hex(string(data)), nil
}

func sha256Hex(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
