package tensor

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
)

// Seed resets the generator behind Randn, Rand and the nn initializers.
// Use it in tests and demos that need reproducible values.
func Seed(seed uint64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

// WithRNG runs fn holding the package generator.
func WithRNG(fn func(r *rand.Rand)) {
	rngMu.Lock()
	defer rngMu.Unlock()
	fn(rng)
}

// Zeros creates a tensor filled with zeros.
//
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones. Only float types are supported.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		fill(data, 1)
	case []float64:
		fill(data, 1)
	default:
		panic("Ones only supports float32 and float64")
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
//
//	t := tensor.Randn[float32](tensor.Shape{100, 100}, backend)
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	FillNormal(t.Raw(), 0, 1)
	return t
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	FillUniform(t.Raw(), 0, 1)
	return t
}

// FillNormal overwrites r in place with samples from N(mean, std²).
func FillNormal(r *RawTensor, mean, std float64) {
	WithRNG(func(g *rand.Rand) {
		switch r.DType() {
		case Float32:
			data := r.AsFloat32()
			for i := range data {
				data[i] = float32(mean + std*g.NormFloat64())
			}
		case Float64:
			data := r.AsFloat64()
			for i := range data {
				data[i] = mean + std*g.NormFloat64()
			}
		default:
			panic("FillNormal only supports float32 and float64")
		}
	})
}

// FillUniform overwrites r in place with samples from U[low, high).
func FillUniform(r *RawTensor, low, high float64) {
	WithRNG(func(g *rand.Rand) {
		switch r.DType() {
		case Float32:
			data := r.AsFloat32()
			for i := range data {
				data[i] = float32(low + (high-low)*g.Float64())
			}
		case Float64:
			data := r.AsFloat64()
			for i := range data {
				data[i] = low + (high-low)*g.Float64()
			}
		default:
			panic("FillUniform only supports float32 and float64")
		}
	})
}

func fill[T float32 | float64](data []T, v T) {
	for i := range data {
		data[i] = v
	}
}
