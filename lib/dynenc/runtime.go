// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/dynenc/lib/compact"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// newRunner returns an interpreter with no environment, no file access
// and no external programs: every command that is not a function or a
// shell builtin goes to exec. Glob expansion is off and errexit is on.
func newRunner(exec func(ctx context.Context, args []string) error, stdout, stderr io.Writer) (*interp.Runner, error) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return interp.New(
		interp.Env(expand.ListEnviron()),
		interp.Dir("/"),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e", "-f"),
		interp.OpenHandler(denyOpen),
		interp.ExecHandlers(func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
			return exec
		}),
	)
}

func denyOpen(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("file access is not available to module code: %s", path)
}

// Fixed externals. Their values are markers; the session implements
// them.
type cencCapability struct{}
type b4aCapability struct{}

// Instance is a module bound to a set of dependency values. Each call
// runs in its own session: a fresh interpreter that evaluates the
// module, runs the factory and applies overrides before invoking the
// requested function. Sessions share nothing mutable, so an Instance is
// safe for concurrent use.
type Instance struct {
	module *Module

	// values are indexed by the handles passed to the factory: cenc,
	// b4a, then the dependencies in sorted order.
	values []any

	// overrides are declarations evaluated after the factory. Load
	// uses them to install load-time script dependencies.
	overrides []*syntax.File

	// factoryCall is "dynenc_factory 0 1 ... n-1".
	factoryCall *syntax.File
}

// Instantiate binds the module to cenc, b4a and bindings, in that
// order, and runs the factory once to check the binding. Binding
// failures wrap [ErrBinding].
func (m *Module) Instantiate(ctx context.Context, bindings []Binding) (*Instance, error) {
	values := make([]any, 0, len(bindings)+2)
	values = append(values, cencCapability{}, b4aCapability{})
	handles := []string{factoryName, "0", "1"}
	for i, binding := range bindings {
		_, value := classify(binding.Value)
		values = append(values, value)
		handles = append(handles, strconv.Itoa(i+2))
	}

	factoryCall, err := newParser().Parse(strings.NewReader(strings.Join(handles, " ")), "factory")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBinding, err)
	}

	instance := &Instance{module: m, values: values, factoryCall: factoryCall}
	if err := instance.check(ctx); err != nil {
		return nil, err
	}
	return instance, nil
}

// override adds a declaration evaluated after the factory in every
// session, replacing any module function of the same name. Overrides
// must all be added before the instance is shared.
func (inst *Instance) override(name, form string) error {
	file, err := newParser().Parse(strings.NewReader(form), name)
	if err != nil {
		return &SourceError{Name: name, Reason: "parse failed", Err: err}
	}
	inst.overrides = append(inst.overrides, file)
	return nil
}

// check starts one session with no state, confirming that the module,
// the binding and every override evaluate.
func (inst *Instance) check(ctx context.Context) error {
	_, err := inst.start(ctx, nil, nil, nil)
	return err
}

// session is the state of one call.
type session struct {
	instance *Instance

	mu    sync.Mutex
	bound map[string]any
	state *compact.State
}

// start creates a session runner and brings it to the point where the
// module's functions are defined and bound. A nil stderr is replaced by
// a private buffer used for error messages.
func (inst *Instance) start(ctx context.Context, state *compact.State, stdout io.Writer, stderr *bytes.Buffer) (*interp.Runner, error) {
	s := &session{instance: inst, state: state}
	if stderr == nil {
		stderr = &bytes.Buffer{}
	}
	runner, err := newRunner(s.exec, stdout, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating interpreter: %w", err)
	}
	if err := runner.Run(ctx, inst.module.file); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluating module: %w", ctxErr)
		}
		return nil, malformed(err, "module evaluation failed")
	}
	if err := runner.Run(ctx, inst.factoryCall); err != nil {
		if errors.Is(err, ErrBinding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s failed: %w%s", ErrBinding, factoryName, err, stderrSuffix(stderr))
	}
	s.mu.Lock()
	isBound := s.bound != nil
	s.mu.Unlock()
	if !isBound {
		return nil, fmt.Errorf("%w: %s did not run %s", ErrBinding, factoryName, bindCommand)
	}
	for _, override := range inst.overrides {
		if err := runner.Run(ctx, override); err != nil {
			return nil, fmt.Errorf("installing dependency override: %w", err)
		}
	}
	return runner, nil
}

// call runs function with args in a new session and returns its
// standard output.
func (inst *Instance) call(ctx context.Context, function string, args []string, state *compact.State) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	runner, err := inst.start(ctx, state, &stdout, &stderr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCall, function, ctxErr)
		}
		return nil, err
	}

	words := make([]string, 0, len(args)+1)
	words = append(words, function)
	for _, arg := range args {
		words = append(words, shellQuote(arg))
	}
	invocation, err := newParser().Parse(strings.NewReader(strings.Join(words, " ")), function)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCall, function, err)
	}

	err = runner.Run(ctx, invocation)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCall, function, ctxErr)
	}
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return nil, fmt.Errorf("%w: %s exited with status %d%s", ErrCall, function, status, stderrSuffix(&stderr))
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCall, function, err)
	}
	return stdout.Bytes(), nil
}

func stderrSuffix(stderr *bytes.Buffer) string {
	message := strings.TrimSpace(stderr.String())
	if message == "" {
		return ""
	}
	return ": " + message
}

// exec implements every command module code can reach besides its own
// functions and the shell builtins.
func (s *session) exec(ctx context.Context, args []string) error {
	command := args[0]
	if command == bindCommand {
		return s.bind(args[1:])
	}

	s.mu.Lock()
	value, ok := s.bound[command]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("capability %q is not available", command)
	}

	stdout := interp.HandlerCtx(ctx).Stdout
	switch typed := value.(type) {
	case cencCapability:
		return s.cenc(stdout, args[1:])
	case b4aCapability:
		return runB4A(stdout, args[1:])
	case HostFunc:
		return callHost(ctx, stdout, command, typed, args[1:])
	case HostObject:
		if len(args) < 2 {
			return fmt.Errorf("%s: missing method name", command)
		}
		method, ok := typed[args[1]]
		if !ok {
			return fmt.Errorf("%s: no method %q", command, args[1])
		}
		return callHost(ctx, stdout, command+"."+args[1], method, args[2:])
	case Source:
		return fmt.Errorf("script dependency %q is not defined", command)
	default:
		if len(args) > 1 {
			return fmt.Errorf("data dependency %q takes no arguments", command)
		}
		return writeJSON(stdout, typed)
	}
}

// bind implements "dynenc_bind formals... -- handles...".
func (s *session) bind(args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != nil {
		return fmt.Errorf("%w: module is already bound", ErrBinding)
	}

	separator := -1
	for i, arg := range args {
		if arg == "--" {
			separator = i
			break
		}
	}
	if separator < 0 {
		return fmt.Errorf("%w: %s without --", ErrBinding, bindCommand)
	}
	formals, handles := args[:separator], args[separator+1:]

	values := s.instance.values
	if len(formals) != len(values) {
		return fmt.Errorf("%w: module binds %d dependencies, %d supplied", ErrBinding, len(formals)-2, len(values)-2)
	}
	if len(handles) != len(formals) {
		return fmt.Errorf("%w: %d parameters but %d arguments", ErrBinding, len(formals), len(handles))
	}
	if formals[0] != "cenc" || formals[1] != "b4a" {
		return fmt.Errorf("%w: cenc and b4a must be bound first", ErrBinding)
	}

	bound := make(map[string]any, len(formals))
	for i, formal := range formals {
		handle, err := strconv.Atoi(handles[i])
		if err != nil || handle < 0 || handle >= len(values) {
			return fmt.Errorf("%w: invalid value handle %q", ErrBinding, handles[i])
		}
		bound[formal] = values[handle]
	}
	s.bound = bound
	return nil
}

// currentState returns the call's compact state.
func (s *session) currentState() (*compact.State, error) {
	if s.state == nil {
		return nil, errors.New("no encoding state outside encode, decode and preencode")
	}
	return s.state, nil
}
