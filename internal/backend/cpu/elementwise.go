package cpu

import (
	"fmt"

	"github.com/born-ml/blocks/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryFloat(cpu, "add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryFloat(cpu, "sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryFloat(cpu, "mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binaryFloat(cpu, "div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// Greater compares element-wise (a > b) with broadcasting and returns a Bool tensor.
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape := broadcastOrPanic("greater", a, b)
	result := cpu.alloc("greater", outShape, tensor.Bool)
	switch a.DType() {
	case tensor.Float32:
		broadcastApply(result.AsBool(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(),
			func(x, y float32) bool { return x > y })
	case tensor.Float64:
		broadcastApply(result.AsBool(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(),
			func(x, y float64) bool { return x > y })
	default:
		panic(fmt.Sprintf("greater: unsupported dtype %s", a.DType()))
	}
	return result
}

func binaryFloat(
	cpu *CPUBackend,
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	outShape := broadcastOrPanic(op, a, b)
	result := cpu.alloc(op, outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		broadcastApply(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f32)
	case tensor.Float64:
		broadcastApply(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), f64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return result
}

func broadcastOrPanic(op string, a, b *tensor.RawTensor) tensor.Shape {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return outShape
}

// broadcastApply writes fn(a[ai], b[bi]) into out for every output index,
// mapping broadcast dimensions of a and b to stride 0.
func broadcastApply[T, R any](out []R, a, b []T, outShape, aShape, bShape tensor.Shape, fn func(x, y T) R) {
	if aShape.Equal(outShape) && bShape.Equal(outShape) {
		for i := range out {
			out[i] = fn(a[i], b[i])
		}
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	idx := make([]int, len(outShape))
	for i := range out {
		ai, bi := 0, 0
		for d, v := range idx {
			ai += v * aStrides[d]
			bi += v * bStrides[d]
		}
		out[i] = fn(a[ai], b[bi])

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// broadcastStrides returns strides of in expressed over the dimensions of out.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for d := range out {
		j := d - offset
		if j >= 0 && in[j] != 1 {
			strides[d] = inStrides[j]
		}
	}
	return strides
}
