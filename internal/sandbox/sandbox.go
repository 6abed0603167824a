// Package sandbox implements the admission plugin execution engine (§4.I).
// Plugins are compiled CEL programs rather than a native bytecode format: no
// example in this operator's dependency set vendors a WASM runtime, while
// cel-go ships a cost-limited, side-effect-free expression VM with exactly
// the properties the admission pipeline needs (content-addressable compiled
// units, an instruction budget, and no ambient I/O). The host ABI in §4.I
// (input_len/read_input/write_output/log/validate) is reimagined here as a
// single CEL variable binding named "request" and a structured map result,
// since CEL has no linear memory to expose pointers into.
package sandbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

var mapStringInterfaceType = reflect.TypeOf(map[string]interface{}{})

// Limits bounds a single plugin's execution (§4.I).
type Limits struct {
	MemoryBytes  int64
	Instructions uint64
	Timeout      time.Duration
}

// DefaultLimits matches the spec's stated defaults: 16 MiB, 1M instructions,
// 1s wall-clock.
func DefaultLimits() Limits {
	return Limits{
		MemoryBytes:  16 * 1024 * 1024,
		Instructions: 1_000_000,
		Timeout:      time.Second,
	}
}

// FailureKind enumerates the deterministic failure modes of §4.I.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureOutOfMemory FailureKind = "PluginOutOfMemory"
	FailureOutOfFuel   FailureKind = "PluginOutOfFuel"
	FailureTimeout     FailureKind = "PluginTimeout"
	FailureTrap        FailureKind = "PluginTrap"
	FailureProtocol    FailureKind = "PluginProtocol"
)

// Module is a compiled plugin together with the content hash of its source.
// Compile builds a new Module on every call; compiled modules are not cached
// or reused across loads, even for identical source.
type Module struct {
	Hash    string
	program cel.Program
}

// ContentHash returns the hex sha256 of source, used both as Module.Hash and
// as the integrity hash the registry verifies (§4.I, §4.K).
func ContentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

var baseEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("request", cel.DynType),
	)
})

// Compile builds a Module from source, a CEL expression which must evaluate
// to a map matching the output contract of §4.I/§6. Compilation is pure and
// does not itself enforce any of Limits; those are applied at Eval time.
func Compile(source string) (*Module, error) {
	env, err := baseEnv()
	if err != nil {
		return nil, fmt.Errorf("building CEL environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrap, issues.Err())
	}

	prg, err := env.Program(ast, cel.EvalOptions(cel.OptTrackCost))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrap, err)
	}

	return &Module{Hash: ContentHash([]byte(source)), program: prg}, nil
}

// ErrTrap wraps the CEL compile-time errors returned by Compile. Evaluation
// errors are not wrapped in it; Eval reports them as FailureTrap in Result.
var ErrTrap = fmt.Errorf("plugin trap")

// Result is the outcome of one invocation of a compiled module.
type Result struct {
	Output  map[string]interface{}
	Failure FailureKind
	Detail  string
}

// Eval runs m against request under limits, enforcing the wall-clock timeout
// with a context deadline and the instruction budget via cel-go's cost
// tracking. A request payload larger than limits.MemoryBytes is rejected
// before evaluation starts, standing in for the sandbox's memory ceiling
// since CEL has no addressable linear memory to cap directly.
func (m *Module) Eval(ctx context.Context, request map[string]interface{}, requestSize int64, limits Limits) Result {
	if requestSize > limits.MemoryBytes {
		return Result{Failure: FailureOutOfMemory, Detail: fmt.Sprintf("request of %d bytes exceeds %d byte limit", requestSize, limits.MemoryBytes)}
	}

	ctx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	type evalOutcome struct {
		val     ref.Val
		details *cel.EvalDetails
		err     error
	}
	done := make(chan evalOutcome, 1)
	go func() {
		val, details, err := m.program.Eval(map[string]interface{}{"request": request})
		done <- evalOutcome{val: val, details: details, err: err}
	}()

	select {
	case <-ctx.Done():
		return Result{Failure: FailureTimeout, Detail: "evaluation exceeded wall-clock budget"}
	case out := <-done:
		if out.err != nil {
			return Result{Failure: FailureTrap, Detail: out.err.Error()}
		}
		if out.details != nil {
			if cost := out.details.ActualCost(); cost != nil && *cost > limits.Instructions {
				return Result{Failure: FailureOutOfFuel, Detail: fmt.Sprintf("cost %d exceeds instruction limit %d", *cost, limits.Instructions)}
			}
		}
		output, ok := toOutput(out.val)
		if !ok {
			return Result{Failure: FailureProtocol, Detail: "validate() did not return a map"}
		}
		return Result{Output: output}
	}
}

func toOutput(val ref.Val) (map[string]interface{}, bool) {
	if val == nil {
		return nil, false
	}
	native, err := val.ConvertToNative(mapStringInterfaceType)
	if err != nil {
		return nil, false
	}
	m, ok := native.(map[string]interface{})
	return m, ok
}
