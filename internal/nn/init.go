package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/blocks/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))),
// which keeps activation variance roughly constant across layers. The draw
// uses the tensor package generator, so tensor.Seed makes it reproducible.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	fillXavier(t.Raw(), fanIn, fanOut)
	return t
}

func fillXavier(r *tensor.RawTensor, fanIn, fanOut int) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	tensor.FillUniform(r, -bound, bound)
}

// Initializer overwrites a parameter value in place.
type Initializer func(r *tensor.RawTensor)

// InitConstant sets every element to v.
func InitConstant(v float64) Initializer {
	return func(r *tensor.RawTensor) {
		data := r.AsFloat32()
		for i := range data {
			data[i] = float32(v)
		}
	}
}

// InitZeros sets every element to 0.
func InitZeros() Initializer {
	return InitConstant(0)
}

// InitNormal draws every element from N(mean, std²).
func InitNormal(mean, std float64) Initializer {
	return func(r *tensor.RawTensor) {
		tensor.FillNormal(r, mean, std)
	}
}

// InitXavier applies Xavier initialization. For a 2D [out, in] value the
// fans are in and out; for any other rank both fans are the element count.
func InitXavier() Initializer {
	return func(r *tensor.RawTensor) {
		shape := r.Shape()
		fanIn, fanOut := r.NumElements(), r.NumElements()
		if len(shape) == 2 {
			fanOut, fanIn = shape[0], shape[1]
		}
		fillXavier(r, fanIn, fanOut)
	}
}

// InitParameters applies init to every distinct parameter of m whose
// canonical name passes filter. A nil filter selects all parameters.
//
// Returns ErrUnboundParameter if a selected parameter has no value yet.
//
//	// Constant-initialize only the weights.
//	err := nn.InitParameters(model, nn.InitConstant(1), func(name string) bool {
//	    return strings.HasSuffix(name, "weight")
//	})
func InitParameters[B tensor.Backend](m Module[B], init Initializer, filter func(name string) bool) error {
	for _, np := range m.NamedParameters() {
		if filter != nil && !filter(np.Name) {
			continue
		}
		v, err := np.Parameter.Value()
		if err != nil {
			return errors.Wrapf(err, "initialize %q", np.Name)
		}
		init(v.Raw())
	}
	return nil
}
