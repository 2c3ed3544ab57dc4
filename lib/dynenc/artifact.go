// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Artifact is a packaged module: a self-contained string that can be
// stored or transmitted and later loaded with [Load].
type Artifact string

// Format selects how module text is encoded inside an artifact.
type Format string

const (
	// FormatBase64 stores the module text uncompressed. It is the
	// default.
	FormatBase64 Format = "base64"

	// FormatZstd compresses the module text with zstd.
	FormatZstd Format = "zstd"

	// FormatLZ4 compresses the module text with an LZ4 frame.
	FormatLZ4 Format = "lz4"
)

// Formats lists the supported formats, default first.
var Formats = []Format{FormatBase64, FormatZstd, FormatLZ4}

// ParseFormat returns the Format for a name. The empty name selects
// FormatBase64.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatBase64:
		return FormatBase64, nil
	case FormatZstd:
		return FormatZstd, nil
	case FormatLZ4:
		return FormatLZ4, nil
	default:
		return "", fmt.Errorf("unknown artifact format %q (available: base64, zstd, lz4)", name)
	}
}

// mediaType is the data URI media type of every artifact.
const mediaType = "application/x-dynenc-module"

const artifactPrefix = "data:" + mediaType

// Pack encodes module text as an artifact in the given format. The
// result is a data URI: "data:application/x-dynenc-module" followed by
// ";zstd" or ";lz4" for compressed formats, then ";base64," and the
// payload.
func Pack(moduleText string, format Format) (Artifact, error) {
	if format == "" {
		format = FormatBase64
	}

	payload := []byte(moduleText)
	var parameter string
	switch format {
	case FormatBase64:
	case FormatZstd:
		payload = compressZstd(payload)
		parameter = ";zstd"
	case FormatLZ4:
		compressed, err := compressLZ4(payload)
		if err != nil {
			return "", err
		}
		payload = compressed
		parameter = ";lz4"
	default:
		return "", fmt.Errorf("unknown artifact format %q", format)
	}

	return Artifact(artifactPrefix + parameter + ";base64," + base64.StdEncoding.EncodeToString(payload)), nil
}

// FormatOf returns the format an artifact was packed with.
func FormatOf(artifact Artifact) (Format, error) {
	format, _, err := splitArtifact(artifact)
	return format, err
}

// UnpackText returns the module text inside an artifact. It is the
// exact inverse of [Pack]. Failures are *MalformedArtifactError.
func UnpackText(artifact Artifact) (string, error) {
	format, encoded, err := splitArtifact(artifact)
	if err != nil {
		return "", err
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", malformed(err, "payload is not base64")
	}

	switch format {
	case FormatZstd:
		payload, err = decompressZstd(payload)
	case FormatLZ4:
		payload, err = decompressLZ4(payload)
	default:
		if len(payload) > maxModuleSize {
			err = fmt.Errorf("module exceeds %d bytes", maxModuleSize)
		}
	}
	if err != nil {
		return "", malformed(err, "payload cannot be decoded")
	}
	if !utf8.Valid(payload) {
		return "", malformed(nil, "module text is not valid UTF-8")
	}
	return string(payload), nil
}

// splitArtifact parses the data URI header, returning the format and
// the base64 payload.
func splitArtifact(artifact Artifact) (Format, string, error) {
	header, payload, found := strings.Cut(string(artifact), ",")
	if !found {
		return "", "", malformed(nil, "artifact is not a data URI")
	}

	parameters, ok := strings.CutPrefix(header, artifactPrefix)
	if !ok {
		return "", "", malformed(nil, "artifact media type is not %s", mediaType)
	}

	switch parameters {
	case ";base64":
		return FormatBase64, payload, nil
	case ";zstd;base64":
		return FormatZstd, payload, nil
	case ";lz4;base64":
		return FormatLZ4, payload, nil
	default:
		return "", "", malformed(nil, "unsupported artifact parameters %q", parameters)
	}
}
