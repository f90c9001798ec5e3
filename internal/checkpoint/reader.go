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

// ReadHeader decodes the fixed header and JSON header of a .blk stream,
// leaving r positioned at the start of the data section.
func ReadHeader(r io.Reader) (Header, [ChecksumSize]byte, error) {
	var (
		header   Header
		checksum [ChecksumSize]byte
	)

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return header, checksum, errors.Wrap(err, "failed to read magic bytes")
	}
	if string(magic) != MagicBytes {
		return header, checksum, ErrInvalidMagic
	}

	var (
		version, flags uint32
		headerSize     uint64
	)
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return header, checksum, errors.Wrap(err, "failed to read version")
	}
	if version != FormatVersion {
		return header, checksum, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}
	for _, field := range []any{&flags, &headerSize, &checksum} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return header, checksum, errors.Wrap(err, "failed to read fixed header")
		}
	}
	if headerSize > MaxHeaderSize {
		return header, checksum, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return header, checksum, errors.Wrap(err, "failed to read header")
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, checksum, errors.Wrap(err, "failed to parse header JSON")
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignedPadding(int64(fixedHeaderSize) + int64(headerSize))
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return header, checksum, errors.Wrap(err, "failed to skip padding")
	}
	return header, checksum, nil
}

// Read decodes a complete .blk stream, verifying the header table and the
// data checksum.
func Read(r io.Reader) (*Checkpoint, error) {
	header, checksum, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if sha256.Sum256(data[:header.DataBytes()]) != checksum {
		return nil, ErrChecksumMismatch
	}

	ckpt := &Checkpoint{Header: header, Entries: make([]StateEntry, 0, len(header.Tensors))}
	for _, meta := range header.Tensors {
		raw, err := decodeTensor(meta, data[meta.Offset:meta.Offset+meta.Size])
		if err != nil {
			return nil, errors.Wrapf(err, "tensor %q", meta.Name)
		}
		ckpt.Entries = append(ckpt.Entries, StateEntry{Name: meta.Name, Tensor: raw})
	}
	return ckpt, nil
}

// ReadFile reads a .blk file.
func ReadFile(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: the path is chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	ckpt, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	klog.V(1).Infof("checkpoint: read %d tensors (%s, id %s) from %s",
		len(ckpt.Entries), ckpt.Header.ModelType, ckpt.Header.ModelID, path)
	return ckpt, nil
}

// ReadFileHeader reads only the header of a .blk file.
func ReadFileHeader(path string) (Header, error) {
	//nolint:gosec // G304: the path is chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return Header{}, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	header, _, err := ReadHeader(bufio.NewReader(f))
	if err != nil {
		return Header{}, errors.Wrapf(err, "read %s", path)
	}
	return header, nil
}
