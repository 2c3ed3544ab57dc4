// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/dynenc/lib/codec"
)

// Record is the file "dynenc create" writes: an artifact together with
// the digest and the hasher that produced it. Files ending in .cbor are
// deterministic CBOR; everything else is JSON.
type Record struct {
	Name     string `json:"name,omitempty"`
	Hash     string `json:"hash"`
	Hasher   string `json:"hasher"`
	Format   string `json:"format"`
	Artifact string `json:"artifact"`
}

func isCBORPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

// MarshalRecord encodes record in the format implied by path.
func MarshalRecord(record *Record, path string) ([]byte, error) {
	if isCBORPath(path) {
		return codec.Marshal(record)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// UnmarshalRecord decodes a record in the format implied by path and
// checks that the required fields are present.
func UnmarshalRecord(data []byte, path string) (*Record, error) {
	var record Record
	var err error
	if isCBORPath(path) {
		err = codec.Unmarshal(data, &record)
	} else {
		err = json.Unmarshal(data, &record)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	if record.Hash == "" || record.Artifact == "" {
		return nil, fmt.Errorf("record %s: hash and artifact are required", path)
	}
	return &record, nil
}

// WriteRecord writes record to path.
func WriteRecord(record *Record, path string) error {
	data, err := MarshalRecord(record, path)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// ReadRecord reads the record at path.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return UnmarshalRecord(data, path)
}
