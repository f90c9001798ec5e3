package ops

import "github.com/born-ml/blocks/internal/tensor"

// ScalarKind selects the scalar operation recorded by ScalarOp.
type ScalarKind int

// Scalar operations.
const (
	ScalarMul ScalarKind = iota
	ScalarAdd
	ScalarDiv
)

// ScalarOp is output = input (op) scalar.
type ScalarOp struct {
	unaryOp
	kind   ScalarKind
	scalar any
}

// NewScalarOp records a scalar operation.
func NewScalarOp(kind ScalarKind, input, output *tensor.RawTensor, scalar any) *ScalarOp {
	return &ScalarOp{unaryOp: unaryOp{input: input, output: output}, kind: kind, scalar: scalar}
}

// Backward computes the input gradient.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case ScalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case ScalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		return []*tensor.RawTensor{outputGrad.Clone()}
	}
}
