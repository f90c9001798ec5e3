package ops

import (
	"fmt"

	"github.com/born-ml/blocks/internal/tensor"
)

// reduceBroadcast sums grad down to target, undoing forward broadcasting.
//
//	forward:  a[3,1] + b[3,4] -> c[3,4]
//	backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
//
// The result never aliases grad.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}
	result := newLike(target, grad)
	switch grad.DType() {
	case tensor.Float32:
		sumInto(result.AsFloat32(), grad.AsFloat32(), grad.Shape(), target)
	case tensor.Float64:
		sumInto(result.AsFloat64(), grad.AsFloat64(), grad.Shape(), target)
	default:
		panic(fmt.Sprintf("reduceBroadcast: unsupported dtype %s", grad.DType()))
	}
	return result
}

// sumInto accumulates every element of src (shaped srcShape) into the
// element of dst it was broadcast from.
func sumInto[T float32 | float64](dst, src []T, srcShape, dstShape tensor.Shape) {
	dstStrides := dstShape.ComputeStrides()
	offset := len(srcShape) - len(dstShape)
	steps := make([]int, len(srcShape))
	for d := range srcShape {
		if j := d - offset; j >= 0 && dstShape[j] != 1 {
			steps[d] = dstStrides[j]
		}
	}
	idx := make([]int, len(srcShape))
	for _, v := range src {
		pos := 0
		for d, k := range idx {
			pos += k * steps[d]
		}
		dst[pos] += v

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < srcShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// zipMap applies fn pairwise over two same-shaped tensors.
func zipMap(a, b *tensor.RawTensor, fn func(x, y float64) float64) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("zipMap: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	result := newLike(a.Shape(), a)
	switch a.DType() {
	case tensor.Float32:
		out, bd := result.AsFloat32(), b.AsFloat32()
		for i, v := range a.AsFloat32() {
			out[i] = float32(fn(float64(v), float64(bd[i])))
		}
	case tensor.Float64:
		out, bd := result.AsFloat64(), b.AsFloat64()
		for i, v := range a.AsFloat64() {
			out[i] = fn(v, bd[i])
		}
	default:
		panic(fmt.Sprintf("zipMap: unsupported dtype %s", a.DType()))
	}
	return result
}

func scalarOf(r *tensor.RawTensor) float64 {
	switch r.DType() {
	case tensor.Float32:
		return float64(r.AsFloat32()[0])
	case tensor.Float64:
		return r.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("scalarOf: unsupported dtype %s", r.DType()))
	}
}

func newLike(shape tensor.Shape, like *tensor.RawTensor) *tensor.RawTensor {
	r, err := tensor.NewRaw(shape, like.DType(), like.Device())
	if err != nil {
		panic(fmt.Sprintf("ops: failed to allocate gradient: %v", err))
	}
	return r
}
