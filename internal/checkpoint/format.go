package checkpoint

import (
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/blocks/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "BLKS"
	FormatVersion   = 1
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary
	ChecksumSize    = 32 // SHA-256
	fixedHeaderSize = 4 + 4 + 4 + 8 + ChecksumSize
)

// Flags stored after the version.
const (
	FlagHasMetadata uint32 = 1 << 0
)

// Validation limits.
const (
	MaxHeaderSize    = 16 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// Header is the JSON header of a .blk file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelID       string            `json:"model_id"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Precision     string            `json:"precision,omitempty"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // canonical parameter name, e.g. "0.weight"
	DType  string `json:"dtype"`  // "float32", "float64", "bool", "float16"
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// NewHeader returns a header with a fresh model id and creation time.
func NewHeader(modelType string, metadata map[string]string) Header {
	return Header{
		FormatVersion: FormatVersion,
		ModelID:       uuid.NewString(),
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
}

// StateEntry is one named tensor of a state dict.
type StateEntry struct {
	Name   string
	Tensor *tensor.RawTensor
}

// Checkpoint is the decoded content of a .blk file.
type Checkpoint struct {
	Header  Header
	Entries []StateEntry
}

// Entry returns the tensor stored under name.
func (c *Checkpoint) Entry(name string) (*tensor.RawTensor, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e.Tensor, true
		}
	}
	return nil, false
}

// DataBytes returns the size of the data section.
func (h *Header) DataBytes() int64 {
	var n int64
	for _, t := range h.Tensors {
		if end := t.Offset + t.Size; end > n {
			n = end
		}
	}
	return n
}

func alignedPadding(pos int64) int64 {
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
