// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/dynenc/cmd/dynenc/cli"
	"github.com/bureau-foundation/dynenc/lib/config"
	"github.com/bureau-foundation/dynenc/lib/digest"
	"github.com/bureau-foundation/dynenc/lib/testutil"
)

const shoutDefinition = `name: shout
encode: cenc string encode "$(text upper "$1")"
preencode: cenc string preencode "$(text upper "$1")"
decode: cenc string decode
dependencies:
  text:
    host: strings
`

// testApp is an App on buffers. Every call to run builds a fresh
// command tree, as separate process invocations would.
type testApp struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	return &testApp{
		app: &App{
			Stdin:  strings.NewReader(""),
			Stdout: stdout,
			Stderr: stderr,
			Hosts:  BuiltinHosts(),
			Level:  new(slog.LevelVar),
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *testApp) run(args ...string) (string, error) {
	a.stdout.Reset()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Root(a.app).Execute(context.Background(), args, logger)
	return a.stdout.String(), err
}

func (a *testApp) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := a.run(args...)
	if err != nil {
		t.Fatalf("dynenc %s: %v", strings.Join(args, " "), err)
	}
	return output
}

// createRecord writes the shout definition and a record for it, and
// returns both paths.
func createRecord(t *testing.T, a *testApp, recordName string, extra ...string) (string, string) {
	t.Helper()
	definitionPath := testutil.WriteFile(t, "shout.yaml", shoutDefinition)
	recordPath := filepath.Join(t.TempDir(), recordName)
	args := append([]string{"create", definitionPath, "-o", recordPath}, extra...)
	a.mustRun(t, args...)
	return definitionPath, recordPath
}

func TestCreateAndVerify(t *testing.T) {
	a := newTestApp(t)
	definitionPath, recordPath := createRecord(t, a, "shout.json")

	record, err := ReadRecord(recordPath)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if record.Name != "shout" || record.Hasher != digest.DefaultName || record.Format != "base64" {
		t.Errorf("record = %+v", record)
	}

	output := a.mustRun(t, "verify", recordPath, "-d", definitionPath)
	want := "OK " + digest.ShortRef(record.Hash) + " " + record.Hash + "\n"
	if output != want {
		t.Errorf("verify output = %q, want %q", output, want)
	}

	output = a.mustRun(t, "verify", recordPath, "-d", definitionPath, "--hash", record.Hash, "--json")
	var result verifyResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("parsing verify --json: %v\n%s", err, output)
	}
	if !result.Verified || result.Name != "shout" || result.Hash != record.Hash {
		t.Errorf("verify --json = %+v", result)
	}
}

func TestVerifyRejectsWrongHash(t *testing.T) {
	a := newTestApp(t)
	definitionPath, recordPath := createRecord(t, a, "shout.json")

	output, err := a.run("verify", recordPath, "-d", definitionPath, "--hash", strings.Repeat("0", 64))
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("verify error = %v, want ExitError code 3", err)
	}
	if !strings.HasPrefix(output, "FAILED ") || !strings.Contains(output, "hash mismatch") {
		t.Errorf("verify output = %q", output)
	}

	output, err = a.run("verify", recordPath, "-d", definitionPath, "--hash", strings.Repeat("0", 64), "--json")
	if cli.ExitCode(err) != 3 {
		t.Fatalf("verify --json exit code = %d, want 3", cli.ExitCode(err))
	}
	var result verifyResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("parsing verify --json: %v\n%s", err, output)
	}
	if result.Verified || result.Error == "" {
		t.Errorf("verify --json = %+v", result)
	}
}

func TestVerifyRejectsMalformedHashFlag(t *testing.T) {
	a := newTestApp(t)
	definitionPath, recordPath := createRecord(t, a, "shout.json")

	for _, hash := range []string{"not-hex", strings.Repeat("ab", 16), strings.Repeat("0", 65)} {
		output, err := a.run("verify", recordPath, "-d", definitionPath, "--hash", hash)
		if cli.ExitCode(err) != 2 {
			t.Errorf("--hash %q: exit code %d (%v), want 2", hash, cli.ExitCode(err), err)
		}
		if strings.HasPrefix(output, "FAILED") {
			t.Errorf("--hash %q reported as a verification failure: %q", hash, output)
		}
	}
}

func TestVerifyRejectsTamperedRecord(t *testing.T) {
	a := newTestApp(t)
	definitionPath, recordPath := createRecord(t, a, "shout.json")

	record, err := ReadRecord(recordPath)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	record.Artifact = "data:text/plain;base64,aGVsbG8="
	if err := WriteRecord(record, recordPath); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	_, err = a.run("verify", recordPath, "-d", definitionPath)
	if cli.ExitCode(err) != 3 {
		t.Errorf("verify of tampered record: exit code %d (%v), want 3", cli.ExitCode(err), err)
	}
}

func TestVerifyWithoutDependencies(t *testing.T) {
	a := newTestApp(t)
	_, recordPath := createRecord(t, a, "shout.json")

	// The module binds "text"; loading with no dependencies fails
	// verification rather than running with an unbound name.
	output, err := a.run("verify", recordPath)
	if cli.ExitCode(err) != 3 {
		t.Errorf("verify without -d: exit code %d (%v), want 3", cli.ExitCode(err), err)
	}
	if !strings.Contains(output, "binds dependencies") {
		t.Errorf("verify output = %q", output)
	}
}

func TestEncodeDecode(t *testing.T) {
	a := newTestApp(t)
	definitionPath, recordPath := createRecord(t, a, "shout.cbor", "--format", "zstd")

	encoded := a.mustRun(t, "encode", recordPath, `"hello"`, "-d", definitionPath)
	if encoded != "0548454c4c4f\n" {
		t.Errorf("encode output = %q, want %q", encoded, "0548454c4c4f\n")
	}

	a.app.Stdin = strings.NewReader(`"quiet"` + "\n")
	fromStdin := a.mustRun(t, "encode", recordPath, "-d", definitionPath)
	if fromStdin != "055155494554\n" {
		t.Errorf("encode from stdin = %q", fromStdin)
	}

	decoded := a.mustRun(t, "decode", recordPath, strings.TrimSpace(encoded), "-d", definitionPath)
	if decoded != `"HELLO"`+"\n" {
		t.Errorf("decode output = %q", decoded)
	}

	_, err := a.run("decode", recordPath, "zz", "-d", definitionPath)
	if cli.ExitCode(err) != 2 {
		t.Errorf("decode of non-hex: exit code %d, want 2", cli.ExitCode(err))
	}
	_, err = a.run("encode", recordPath, "not json", "-d", definitionPath)
	if cli.ExitCode(err) != 2 {
		t.Errorf("encode of non-JSON: exit code %d, want 2", cli.ExitCode(err))
	}
}

func TestHashMatchesRecord(t *testing.T) {
	a := newTestApp(t)
	definitionPath := testutil.WriteFile(t, "shout.yaml", shoutDefinition)

	output := a.mustRun(t, "create", definitionPath, "--hasher", "blake3")
	var record Record
	if err := json.Unmarshal([]byte(output), &record); err != nil {
		t.Fatalf("parsing create output: %v\n%s", err, output)
	}
	if record.Hasher != "blake3" {
		t.Errorf("record hasher = %q, want blake3", record.Hasher)
	}

	hashed := a.mustRun(t, "hash", definitionPath, "--hasher", "blake3")
	if strings.TrimSpace(hashed) != record.Hash {
		t.Errorf("hash = %q, record hash = %q", strings.TrimSpace(hashed), record.Hash)
	}

	canonical := a.mustRun(t, "hash", definitionPath, "--canonical")
	for _, entry := range []string{"encode: ", "decode: ", "preencode: ", "text: host"} {
		if !strings.Contains(canonical, entry) {
			t.Errorf("canonical text lacks %q:\n%s", entry, canonical)
		}
	}
}

func TestInspect(t *testing.T) {
	a := newTestApp(t)
	_, recordPath := createRecord(t, a, "shout.json", "--format", "lz4")

	output := a.mustRun(t, "inspect", recordPath, "--json")
	var summary inspectSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("parsing inspect --json: %v\n%s", err, output)
	}
	if summary.Name != "shout" || summary.Format != "lz4" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.RecordHash != summary.EmbeddedHash {
		t.Errorf("record hash %s, embedded hash %s", summary.RecordHash, summary.EmbeddedHash)
	}
	if strings.Join(summary.Dependencies, ",") != "text" {
		t.Errorf("dependencies = %v, want [text]", summary.Dependencies)
	}

	text := a.mustRun(t, "inspect", recordPath)
	if !strings.Contains(text, "shout") || !strings.Contains(text, summary.Ref) {
		t.Errorf("inspect output:\n%s", text)
	}

	source := a.mustRun(t, "inspect", recordPath, "--text")
	if !strings.HasPrefix(source, "# dynenc module v1\n") || !strings.Contains(source, "dynenc_factory()") {
		t.Errorf("inspect --text:\n%s", source)
	}
}

func TestMissingFiles(t *testing.T) {
	a := newTestApp(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	tests := [][]string{
		{"create", missing},
		{"verify", missing},
		{"inspect", missing},
		{"hash", missing},
		{"verify", missing, "--config", filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[:1], " "), func(t *testing.T) {
			_, err := a.run(args...)
			if cli.ExitCode(err) != 4 {
				t.Errorf("dynenc %v: exit code %d (%v), want 4", args, cli.ExitCode(err), err)
			}
		})
	}
}

func TestConfigArtifactDirectory(t *testing.T) {
	a := newTestApp(t)
	artifacts := t.TempDir()
	configPath := testutil.WriteFile(t, "dynenc.yaml",
		"encoder:\n  hasher: blake2b\n  format: zstd\npaths:\n  artifacts: "+artifacts+"\n")
	definitionPath := testutil.WriteFile(t, "shout.yaml", shoutDefinition)

	a.mustRun(t, "create", definitionPath, "-o", "shout.json", "--config", configPath)

	record, err := ReadRecord(filepath.Join(artifacts, "shout.json"))
	if err != nil {
		t.Fatalf("record not written to artifact directory: %v", err)
	}
	if record.Hasher != "blake2b" || record.Format != "zstd" {
		t.Errorf("record = %+v, want blake2b and zstd from config", record)
	}

	a.mustRun(t, "verify", "shout.json", "-d", definitionPath, "--config", configPath)

	badConfig := testutil.WriteFile(t, "bad.yaml", "encoder:\n  hasher: md5\n")
	_, err = a.run("create", definitionPath, "--config", badConfig)
	if cli.ExitCode(err) != 2 {
		t.Errorf("invalid config: exit code %d (%v), want 2", cli.ExitCode(err), err)
	}
}

func TestRecordFormats(t *testing.T) {
	record := &Record{Name: "shout", Hash: "ab", Hasher: "sha256", Format: "base64", Artifact: "data:x"}
	for _, name := range []string{"record.json", "record.cbor"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteRecord(record, path); err != nil {
				t.Fatalf("WriteRecord: %v", err)
			}
			got, err := ReadRecord(path)
			if err != nil {
				t.Fatalf("ReadRecord: %v", err)
			}
			if *got != *record {
				t.Errorf("ReadRecord = %+v, want %+v", got, record)
			}
		})
	}

	data, err := MarshalRecord(record, "record.cbor")
	if err != nil {
		t.Fatalf("MarshalRecord: %v", err)
	}
	if json.Valid(data) {
		t.Error("CBOR record is valid JSON")
	}
	if _, err := UnmarshalRecord([]byte(`{"name": "x"}`), "record.json"); err == nil {
		t.Error("UnmarshalRecord accepted a record without hash and artifact")
	}
}

func TestBuiltinHosts(t *testing.T) {
	hosts := BuiltinHosts()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (any, error)
		want any
	}{
		{"upper", func() (any, error) { return upper(ctx, []any{"abc"}) }, "ABC"},
		{"lower", func() (any, error) { return lower(ctx, []any{"ABC"}) }, "abc"},
		{"trim", func() (any, error) { return trim(ctx, []any{"  abc "}) }, "abc"},
		{"prefix", func() (any, error) { return prefix(ctx, []any{"x:", "abc"}) }, "x:abc"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.call()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != test.want {
				t.Errorf("got %#v, want %#v", got, test.want)
			}
		})
	}

	if _, err := upper(ctx, []any{1}); err == nil {
		t.Error("upper accepted a non-string")
	}
	if _, err := prefix(ctx, []any{"x"}); err == nil {
		t.Error("prefix accepted one argument")
	}
	for _, name := range []string{"upper", "lower", "strings"} {
		if _, ok := hosts[name]; !ok {
			t.Errorf("BuiltinHosts lacks %q", name)
		}
	}
}

func TestVersion(t *testing.T) {
	a := newTestApp(t)
	output := a.mustRun(t, "version")
	for _, want := range []string{"Module format: v1", "sha256", "zstd"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output lacks %q:\n%s", want, output)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	a := newTestApp(t)
	_, err := a.run("verfy")
	if cli.ExitCode(err) != 2 || !strings.Contains(err.Error(), `"verify"`) {
		t.Errorf("unknown command error = %v", err)
	}
}
