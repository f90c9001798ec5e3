// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/blocks/internal/checkpoint"
	"github.com/born-ml/blocks/internal/nn"
	"github.com/born-ml/blocks/tensor"
)

// Module is the contract every component satisfies.
//
// Forward maps one input to one output and must not register anything.
// The enumeration methods expose the registry:
//   - Parameters: every distinct parameter, own and nested
//   - NamedParameters: the same with canonical qualified names
//   - LocalParameters: parameters registered directly on the module
//   - NamedChildren: direct children in registration order
type Module[B tensor.Backend] = nn.Module[B]

// MultiForwarder is implemented by modules with several inputs or outputs.
type MultiForwarder[B tensor.Backend] = nn.MultiForwarder[B]

// NamedParameter pairs a parameter with its qualified name.
type NamedParameter[B tensor.Backend] = nn.NamedParameter[B]

// NamedModule pairs a module with its qualified name.
type NamedModule[B tensor.Backend] = nn.NamedModule[B]

// Base is the registry embedded by every module in this package.
type Base[B tensor.Backend] = nn.Base[B]

// NewBase returns an empty registry reporting kind.
func NewBase[B tensor.Backend](kind string) Base[B] {
	return nn.NewBase[B](kind)
}

// Call invokes m on inputs, through ForwardMulti when available.
func Call[B tensor.Backend](m Module[B], inputs ...*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	return nn.Call(m, inputs...)
}

// StateEntry is one named tensor of a module's state.
type StateEntry = checkpoint.StateEntry

// CheckpointHeader describes a saved file.
type CheckpointHeader = checkpoint.Header

// StateDict returns every distinct parameter value under its canonical name.
func StateDict[B tensor.Backend](m Module[B]) ([]StateEntry, error) {
	return checkpoint.StateDict(m)
}

// LoadStateDict copies entries into m by canonical name, binding lazy
// parameters on the way. See Load for the meaning of strict.
func LoadStateDict[B tensor.Backend](m Module[B], entries []StateEntry, backend B, strict bool) error {
	return checkpoint.LoadStateDict(m, entries, backend, strict)
}

// Save writes the state of m to path. Every parameter must be bound; run
// one Forward first on models with lazy layers.
//
// Example:
//
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save("model.blk", model, map[string]string{"epoch": "3"})
func Save[B tensor.Backend](path string, m Module[B], metadata map[string]string) error {
	return save(path, m, metadata, checkpoint.PrecisionNative)
}

// SaveFloat16 is Save with parameters stored at half precision. Load
// widens them back to float32.
func SaveFloat16[B tensor.Backend](path string, m Module[B], metadata map[string]string) error {
	return save(path, m, metadata, checkpoint.PrecisionFloat16)
}

func save[B tensor.Backend](path string, m Module[B], metadata map[string]string, precision string) error {
	entries, err := checkpoint.StateDict(m)
	if err != nil {
		return err
	}
	header := checkpoint.NewHeader(kindOf(m), metadata)
	header.Precision = precision
	return checkpoint.WriteFile(path, entries, header)
}

// Load reads path into m and returns the file header.
//
// With strict, every parameter of m must be present in the file and every
// tensor in the file must belong to m. Unbound parameters of lazy layers
// are bound to the stored values.
//
// Example:
//
//	model := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("model.blk", model, backend, true)
func Load[B tensor.Backend](path string, m Module[B], backend B, strict bool) (CheckpointHeader, error) {
	ckpt, err := checkpoint.ReadFile(path)
	if err != nil {
		return CheckpointHeader{}, err
	}
	if err := checkpoint.LoadStateDict(m, ckpt.Entries, backend, strict); err != nil {
		return CheckpointHeader{}, err
	}
	return ckpt.Header, nil
}

// ReadCheckpointHeader reads only the header of a saved file.
func ReadCheckpointHeader(path string) (CheckpointHeader, error) {
	return checkpoint.ReadFileHeader(path)
}

func kindOf[B tensor.Backend](m Module[B]) string {
	if k, ok := m.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return "Module"
}
