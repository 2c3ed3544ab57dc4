// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
)

type sharedParams struct {
	Config string `flag:"config" desc:"config file"`
}

type composedParams struct {
	sharedParams
	JSONOutput
	Output  string `flag:"output,o" desc:"output file" default:"-"`
	Verbose bool   `flag:"verbose,v" desc:"verbose" default:"true"`
	skip    string
}

func TestBindFlags_Embedded(t *testing.T) {
	var params composedParams
	flagSet := FlagsFromParams("test", &params)
	if err := flagSet.Parse([]string{"--config", "c.yaml", "--json", "-o", "out.json", "--verbose=false"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Config != "c.yaml" || !params.OutputJSON {
		t.Errorf("embedded flags not bound: %+v", params)
	}
	if params.Output != "out.json" || params.Verbose {
		t.Errorf("Output = %q, Verbose = %v", params.Output, params.Verbose)
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	var params composedParams
	flagSet := FlagsFromParams("test", &params)
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Output != "-" || !params.Verbose || params.OutputJSON {
		t.Errorf("defaults = %+v", params)
	}
	if flagSet.Lookup("skip") != nil {
		t.Error("untagged field bound as a flag")
	}
}

func TestBindFlags_Errors(t *testing.T) {
	var notPointer composedParams
	if err := BindFlags(notPointer, FlagsFromParams("x", &struct{}{})); err == nil {
		t.Error("non-pointer params accepted")
	}

	var unsupported struct {
		Count int `flag:"count"`
	}
	if err := BindFlags(&unsupported, FlagsFromParams("x", &struct{}{})); err == nil {
		t.Error("unsupported field type accepted")
	}

	var badDefault struct {
		Force bool `flag:"force" default:"maybe"`
	}
	if err := BindFlags(&badDefault, FlagsFromParams("x", &struct{}{})); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("bad default error = %v", err)
	}

	var unexported struct {
		hidden string `flag:"hidden"`
	}
	if err := BindFlags(&unexported, FlagsFromParams("x", &struct{}{})); err == nil {
		t.Error("flag on unexported field accepted")
	}
}

func TestEmitJSON(t *testing.T) {
	var buffer bytes.Buffer
	output := JSONOutput{}
	if done, _ := output.EmitJSON(&buffer, 1); done || buffer.Len() != 0 {
		t.Error("EmitJSON wrote without --json")
	}

	output.OutputJSON = true
	var empty []string
	done, err := output.EmitJSON(&buffer, empty)
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice rendered as %q, want []", buffer.String())
	}
}
