package checkpoint

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Write encodes entries in .blk format. The tensor table of header is
// rebuilt from entries; the remaining fields are written as given.
// With header.Precision set to PrecisionFloat16, float32 tensors are
// stored at half precision.
func Write(w io.Writer, entries []StateEntry, header Header) error {
	if header.Precision != PrecisionNative && header.Precision != PrecisionFloat16 {
		return errors.Errorf("unknown precision %q", header.Precision)
	}
	header.FormatVersion = FormatVersion
	header.Tensors = make([]TensorMeta, 0, len(entries))

	var offset int64
	sum := sha256.New()
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, dtype := encodeTensor(e.Tensor, header.Precision)
		encoded[i] = data
		size := int64(len(data))
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.Name,
			DType:  dtype,
			Shape:  append([]int(nil), e.Tensor.Shape()...),
			Offset: offset,
			Size:   size,
		})
		offset += size
		sum.Write(data)
	}
	if err := ValidateHeader(&header, offset); err != nil {
		return errors.Wrap(err, "invalid state")
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	var checksum [ChecksumSize]byte
	copy(checksum[:], sum.Sum(nil))

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(MagicBytes); err != nil {
		return errors.Wrap(err, "failed to write magic bytes")
	}
	for _, field := range []any{uint32(FormatVersion), flags, uint64(len(headerJSON)), checksum} {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return errors.Wrap(err, "failed to write fixed header")
		}
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	padding := alignedPadding(int64(fixedHeaderSize + len(headerJSON)))
	if _, err := bw.Write(make([]byte, padding)); err != nil {
		return errors.Wrap(err, "failed to write padding")
	}

	for i, data := range encoded {
		if _, err := bw.Write(data); err != nil {
			return errors.Wrapf(err, "failed to write tensor %q", entries[i].Name)
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush")
}

// WriteFile writes entries to path, replacing any existing file.
func WriteFile(path string, entries []StateEntry, header Header) (err error) {
	//nolint:gosec // G304: the path is chosen by the caller
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()

	if err := Write(f, entries, header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	klog.V(1).Infof("checkpoint: wrote %d tensors (%s) to %s", len(entries), header.ModelType, path)
	return nil
}
