package checkpoint

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/born-ml/blocks/internal/tensor"
)

// ValidateHeader checks the tensor table against a data section of
// dataSize bytes: names, dtypes, sizes, bounds and overlaps.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	names := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := validateName(t.Name); err != nil {
			return err
		}
		if names[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "name appears twice"}
		}
		names[t.Name] = true

		elemSize, ok := storedSize(t.DType)
		if !ok {
			return &ValidationError{Type: "invalid_dtype", Tensor: t.Name, Details: t.DType}
		}
		shape := tensor.Shape(t.Shape)
		if err := shape.Validate(); err != nil {
			return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: err.Error()}
		}
		want, ok := byteSize(shape, elemSize)
		if !ok {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v of %s overflows the addressable size", t.Shape, t.DType),
			}
		}
		if want != t.Size {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v of %s needs %d bytes, header says %d", t.Shape, t.DType, want, t.Size),
			}
		}
	}
	return validateOffsets(h.Tensors, dataSize)
}

// byteSize returns the storage size of shape, or false if it exceeds
// math.MaxInt64.
func byteSize(shape tensor.Shape, elemSize int) (int64, bool) {
	limit := int64(math.MaxInt64) / int64(elemSize)
	n := int64(1)
	for _, d := range shape {
		if d > 0 && n > limit/int64(d) {
			return 0, false
		}
		n *= int64(d)
	}
	return n * int64(elemSize), true
}

// validateOffsets rejects negative, out-of-bounds and overlapping regions.
func validateOffsets(tensors []TensorMeta, dataSize int64) error {
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Size > dataSize || t.Offset > dataSize-t.Size {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 && t.Offset+t.Size > sorted[i+1].Offset {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  t.Name,
				Details: fmt.Sprintf("overlaps %q", sorted[i+1].Name),
			}
		}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.ContainsAny(name, "/\\\x00"):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains a path separator or null byte"}
	}
	return nil
}
