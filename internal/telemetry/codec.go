package telemetry

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeSnapshots serializes a batch of snapshots as a JSON array.
func EncodeSnapshots(batch []SystemSnapshot) ([]byte, error) {
	if batch == nil {
		batch = []SystemSnapshot{}
	}
	return json.Marshal(batch)
}

// DecodeSnapshots parses a JSON array of snapshots.
func DecodeSnapshots(data []byte) ([]SystemSnapshot, error) {
	var batch []SystemSnapshot
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}
