package ops

import "github.com/born-ml/blocks/internal/tensor"

// TransposeOp is output = transpose(input, axes).
//
// The CPU backend materializes transposes into new memory, so without this
// op a gradient computed for Wᵀ would never reach the parameter W.
type TransposeOp struct {
	unaryOp
	axes []int
}

// NewTransposeOp records a transpose with the given permutation.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{unaryOp: unaryOp{input: input, output: output}, axes: axes}
}

// Backward transposes the gradient with the inverse permutation.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// ReshapeOp is output = reshape(input, newShape).
type ReshapeOp struct {
	unaryOp
	origShape tensor.Shape
}

// NewReshapeOp records a reshape.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{unaryOp: unaryOp{input: input, output: output}, origShape: input.Shape().Clone()}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.origShape)}
}
