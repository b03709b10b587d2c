package subtitles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Block is one caption entry as emitted by the model.
type Block struct {
	ID        int    `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Text      string `json:"text"`
}

var (
	errNotObject    = errors.New("record is not a JSON object")
	errMissingField = errors.New("missing field")
	errFieldType    = errors.New("wrong field type")
)

// DecodeBlock parses one JSON record and enforces the block invariant: all four
// fields present, id a positive integer, the rest strings. Extra fields are ignored.
func DecodeBlock(record []byte) (Block, error) {
	var block Block
	trimmed := bytes.TrimSpace(record)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return block, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return block, fmt.Errorf("decode record: %w", err)
	}

	id, err := numberField(fields, "id")
	if err != nil {
		return block, err
	}
	block.ID = id
	if block.StartTime, err = stringField(fields, "startTime"); err != nil {
		return block, err
	}
	if block.EndTime, err = stringField(fields, "endTime"); err != nil {
		return block, err
	}
	if block.Text, err = stringField(fields, "text"); err != nil {
		return block, err
	}
	return block, nil
}

// maxID bounds block ids so every accepted id fits an int on any platform.
const maxID = math.MaxInt32

func numberField(fields map[string]json.RawMessage, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errMissingField, key)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errFieldType, key, err)
	}
	num, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", errFieldType, key)
	}
	if n, err := num.Int64(); err == nil {
		return positiveID(key, float64(n), num)
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", errFieldType, key, num.String())
	}
	return positiveID(key, f, num)
}

func positiveID(key string, f float64, num json.Number) (int, error) {
	if f < 1 || f > maxID {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d, got %s", errFieldType, key, maxID, num.String())
	}
	return int(f), nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissingField, key)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", fmt.Errorf("%w: %s must be a string", errFieldType, key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s: %v", errFieldType, key, err)
	}
	return value, nil
}
