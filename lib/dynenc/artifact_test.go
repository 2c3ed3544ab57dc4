// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"errors"
	"strings"
	"testing"
)

const sampleModuleText = "# dynenc module v1\ndynenc_factory() {\ndynenc_bind cenc b4a -- \"$@\"\nhash='abc'\n}\n"

func TestPackUnpackTextRoundtrip(t *testing.T) {
	texts := []string{sampleModuleText, "", strings.Repeat("encode() { cenc uint encode \"$1\"; }\n", 500)}
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			for _, text := range texts {
				artifact, err := Pack(text, format)
				if err != nil {
					t.Fatalf("Pack: %v", err)
				}
				detected, err := FormatOf(artifact)
				if err != nil {
					t.Fatalf("FormatOf: %v", err)
				}
				if detected != format {
					t.Errorf("FormatOf = %q, want %q", detected, format)
				}
				unpacked, err := UnpackText(artifact)
				if err != nil {
					t.Fatalf("UnpackText: %v", err)
				}
				if unpacked != text {
					t.Errorf("roundtrip changed %d-byte module text", len(text))
				}
			}
		})
	}
}

func TestPackDefaultFormat(t *testing.T) {
	artifact, err := Pack(sampleModuleText, "")
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !strings.HasPrefix(string(artifact), "data:application/x-dynenc-module;base64,") {
		t.Errorf("artifact header = %q", string(artifact)[:min(len(artifact), 48)])
	}
	if _, err := Pack(sampleModuleText, "gzip"); err == nil {
		t.Error("Pack accepted an unknown format")
	}
}

func TestCompressedFormatsShrinkLargeModules(t *testing.T) {
	text := strings.Repeat("decode() { cenc json decode; }\n", 1000)
	plain, _ := Pack(text, FormatBase64)
	for _, format := range []Format{FormatZstd, FormatLZ4} {
		compressed, err := Pack(text, format)
		if err != nil {
			t.Fatalf("Pack(%s): %v", format, err)
		}
		if len(compressed) >= len(plain) {
			t.Errorf("%s artifact is %d bytes, plain is %d", format, len(compressed), len(plain))
		}
	}
}

func TestUnpackTextMalformed(t *testing.T) {
	tests := []struct {
		name     string
		artifact Artifact
	}{
		{"empty", ""},
		{"not a data uri", "hello world"},
		{"wrong media type", "data:text/plain;base64,aGk="},
		{"unknown parameters", "data:application/x-dynenc-module;gzip;base64,aGk="},
		{"missing base64", "data:application/x-dynenc-module,hi"},
		{"bad base64", "data:application/x-dynenc-module;base64,!!!"},
		{"bad zstd", "data:application/x-dynenc-module;zstd;base64,aGVsbG8="},
		{"bad lz4", "data:application/x-dynenc-module;lz4;base64,aGVsbG8="},
		{"invalid utf8", "data:application/x-dynenc-module;base64,/w=="},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := UnpackText(test.artifact)
			if !errors.Is(err, ErrMalformedArtifact) {
				t.Fatalf("error = %v, want ErrMalformedArtifact", err)
			}
			var malformedErr *MalformedArtifactError
			if !errors.As(err, &malformedErr) {
				t.Errorf("error %v is not a MalformedArtifactError", err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, format := range Formats {
		parsed, err := ParseFormat(string(format))
		if err != nil || parsed != format {
			t.Errorf("ParseFormat(%q) = %q, %v", format, parsed, err)
		}
	}
	if parsed, err := ParseFormat(""); err != nil || parsed != FormatBase64 {
		t.Errorf("ParseFormat(\"\") = %q, %v", parsed, err)
	}
	if _, err := ParseFormat("brotli"); err == nil {
		t.Error("ParseFormat accepted an unknown format")
	}
}
