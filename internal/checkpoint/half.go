package checkpoint

import (
	"encoding/binary"

	"github.com/x448/float16"

	"github.com/born-ml/blocks/internal/tensor"
)

// Storage precisions for Header.Precision.
const (
	PrecisionNative  = ""        // tensors stored in their own dtype
	PrecisionFloat16 = "float16" // float32 tensors stored as IEEE half
)

const float16DType = "float16"

// storedSize returns the element size of a dtype name as it appears in a
// tensor table.
func storedSize(dtype string) (int, bool) {
	if dtype == float16DType {
		return 2, true
	}
	dt, ok := tensor.ParseDataType(dtype)
	if !ok {
		return 0, false
	}
	return dt.Size(), true
}

// encodeTensor returns the on-disk bytes and dtype name of r.
func encodeTensor(r *tensor.RawTensor, precision string) ([]byte, string) {
	if precision != PrecisionFloat16 || r.DType() != tensor.Float32 {
		return r.Data(), r.DType().String()
	}
	src := r.AsFloat32()
	out := make([]byte, 2*len(src))
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
	}
	return out, float16DType
}

// decodeTensor allocates a CPU tensor from stored bytes. Half-precision
// data widens to float32.
func decodeTensor(meta TensorMeta, data []byte) (*tensor.RawTensor, error) {
	if meta.DType != float16DType {
		dt, _ := tensor.ParseDataType(meta.DType)
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dt, tensor.CPU)
		if err != nil {
			return nil, err
		}
		copy(raw.Data(), data)
		return raw, nil
	}

	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, err
	}
	dst := raw.AsFloat32()
	for i := range dst {
		dst[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
	}
	return raw, nil
}
