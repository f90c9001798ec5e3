// Package nn implements composable modules with named parameter registries.
//
// The package provides:
//   - Module: the contract every component satisfies (Forward plus registry enumeration)
//   - Base: the embeddable registry of parameters, children and constants
//   - Parameter: a named tensor with a gradient slot, shared by pointer for tying
//   - Sequential: ordered composite, children named by position
//   - Linear: affine leaf with optional lazy input dimension
//   - Custom: arbitrary forward procedure over owned children, parameters and constants
//   - Activations: ReLU, Tanh, Sigmoid
//
// Modules nest freely. Parameter names are the dot-joined path of
// registration names from the root, for example "0.weight" or "net.2.bias".
package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// Module is the contract every component satisfies.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewLazyLinear(256, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLazyLinear(10, backend),
//	)
//	out, err := model.Forward(x)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output for one input tensor.
	//
	// Forward must not register parameters or children. It may read and
	// write parameter values and may branch on input values.
	Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// Parameters returns every distinct parameter, own and nested.
	Parameters() []*Parameter[B]

	// NamedParameters returns every distinct parameter with its qualified
	// name: own parameters in registration order, then each child's with a
	// "child." prefix. A parameter reachable from several paths appears once
	// under the first path reached.
	NamedParameters() []NamedParameter[B]

	// LocalParameters returns the parameters registered directly on this
	// module, including repeated registrations of one parameter.
	LocalParameters() []NamedParameter[B]

	// NamedChildren returns the direct children in registration order.
	NamedChildren() []NamedModule[B]
}

// MultiForwarder is implemented by modules that map several input tensors to
// several outputs.
type MultiForwarder[B tensor.Backend] interface {
	ForwardMulti(inputs []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error)
}

// NamedParameter pairs a parameter with its (qualified) name.
type NamedParameter[B tensor.Backend] struct {
	Name      string
	Parameter *Parameter[B]
}

// NamedModule pairs a module with its (qualified) name.
type NamedModule[B tensor.Backend] struct {
	Name   string
	Module Module[B]
}

// Call invokes m on inputs, using ForwardMulti when m implements
// MultiForwarder and Forward otherwise.
func Call[B tensor.Backend](m Module[B], inputs ...*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	if mf, ok := m.(MultiForwarder[B]); ok {
		return mf.ForwardMulti(inputs)
	}
	if len(inputs) != 1 {
		return nil, errors.Wrapf(ErrInputArity, "module takes 1 input, got %d", len(inputs))
	}
	out, err := m.Forward(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor[float32, B]{out}, nil
}
