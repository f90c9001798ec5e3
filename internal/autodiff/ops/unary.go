package ops

import "github.com/born-ml/blocks/internal/tensor"

// ReLUOp is output = max(0, x); the gradient passes where x > 0.
type ReLUOp struct{ unaryOp }

// NewReLUOp records a ReLU.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{unaryOp{input: input, output: output}}
}

// Backward masks the gradient with x > 0.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zipMap(outputGrad, op.input, func(g, x float64) float64 {
		if x > 0 {
			return g
		}
		return 0
	})}
}

// TanhOp is output = tanh(x); d/dx = 1 - tanh²(x).
type TanhOp struct{ unaryOp }

// NewTanhOp records a tanh.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{unaryOp{input: input, output: output}}
}

// Backward computes grad * (1 - y²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zipMap(outputGrad, op.output, func(g, y float64) float64 {
		return g * (1 - y*y)
	})}
}

// SigmoidOp is output = σ(x); d/dx = σ(x)(1 - σ(x)).
type SigmoidOp struct{ unaryOp }

// NewSigmoidOp records a sigmoid.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{unaryOp{input: input, output: output}}
}

// Backward computes grad * y * (1 - y).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zipMap(outputGrad, op.output, func(g, y float64) float64 {
		return g * y * (1 - y)
	})}
}

// AbsOp is output = |x|; d/dx = sign(x), 0 at 0.
type AbsOp struct{ unaryOp }

// NewAbsOp records an absolute value.
func NewAbsOp(input, output *tensor.RawTensor) *AbsOp {
	return &AbsOp{unaryOp{input: input, output: output}}
}

// Backward computes grad * sign(x).
func (op *AbsOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zipMap(outputGrad, op.input, func(g, x float64) float64 {
		switch {
		case x > 0:
			return g
		case x < 0:
			return -g
		default:
			return 0
		}
	})}
}

// SumOp is output = Σ x, a scalar.
type SumOp struct{ unaryOp }

// NewSumOp records a full reduction.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{unaryOp{input: input, output: output}}
}

// Backward broadcasts the scalar gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := scalarOf(outputGrad)
	grad := newLike(op.input.Shape(), op.input)
	switch grad.DType() {
	case tensor.Float32:
		data := grad.AsFloat32()
		for i := range data {
			data[i] = float32(g)
		}
	case tensor.Float64:
		data := grad.AsFloat64()
		for i := range data {
			data[i] = g
		}
	}
	return []*tensor.RawTensor{grad}
}
