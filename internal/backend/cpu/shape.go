package cpu

import (
	"fmt"

	"github.com/born-ml/blocks/internal/tensor"
)

// Reshape returns a tensor sharing t's memory with a new shape.
// One dimension may be -1 and is inferred from the element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape, err := inferShape(t.NumElements(), newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	view, err := t.View(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}

func inferShape(numElements int, shape tensor.Shape) (tensor.Shape, error) {
	out := shape.Clone()
	inferred := -1
	known := 1
	for i, d := range out {
		switch {
		case d == -1 && inferred >= 0:
			return nil, fmt.Errorf("only one dimension can be -1, got %v", shape)
		case d == -1:
			inferred = i
		default:
			known *= d
		}
	}
	if inferred >= 0 {
		if known <= 0 || numElements%known != 0 {
			return nil, fmt.Errorf("cannot infer dimension of %v for %d elements", shape, numElements)
		}
		out[inferred] = numElements / known
	}
	return out, nil
}

// Transpose permutes the dimensions of t. With no axes all dimensions are reversed.
// The result owns new memory.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	inShape := t.Shape()
	ndim := len(inShape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid permutation %v", axes))
		}
		seen[ax] = true
		outShape[i] = inShape[ax]
	}

	result := cpu.alloc("transpose", outShape, t.DType())
	switch t.DType() {
	case tensor.Float32:
		permute(result.AsFloat32(), t.AsFloat32(), inShape, outShape, axes)
	case tensor.Float64:
		permute(result.AsFloat64(), t.AsFloat64(), inShape, outShape, axes)
	case tensor.Bool:
		permute(result.AsBool(), t.AsBool(), inShape, outShape, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

func permute[T any](out, in []T, inShape, outShape tensor.Shape, axes []int) {
	inStrides := inShape.ComputeStrides()
	// Stride in the input for a step along each output dimension.
	steps := make([]int, len(axes))
	for i, ax := range axes {
		steps[i] = inStrides[ax]
	}
	idx := make([]int, len(outShape))
	for i := range out {
		src := 0
		for d, v := range idx {
			src += v * steps[d]
		}
		out[i] = in[src]

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
