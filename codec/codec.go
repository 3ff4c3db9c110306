package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
)

// Codec compresses sealed pages and metadata blobs. Decompress needs the
// uncompressed length because the persisted formats store it next to the
// compressed bytes: the anchor for header and footer, the footer's cluster
// group entries for page lists, and the sealed-page frame for pages.
type Codec interface {
	// Compress returns the compressed representation of src.
	Compress(src []byte) ([]byte, error)
	// Decompress expands src into a buffer of exactly length bytes.
	Decompress(src []byte, length int) ([]byte, error)
}

// Compression settings encode algorithm*100+level. Settings 0 disables
// compression.
const (
	AlgorithmNone = 0
	AlgorithmLZMA = 2
	AlgorithmZstd = 5

	// DefaultSettings is zstd at level 5.
	DefaultSettings = AlgorithmZstd*100 + 5
)

// ForSettings resolves the codec for a settings value.
func ForSettings(settings int) (Codec, error) {
	algorithm, level := settings/100, settings%100
	switch algorithm {
	case AlgorithmNone:
		return None{}, nil
	case AlgorithmZstd:
		return Zstd{Level: level}, nil
	case AlgorithmLZMA:
		return LZMA{}, nil
	default:
		return nil, errors.Errorf("unsupported compression settings: %d", settings)
	}
}

// None stores bytes verbatim.
type None struct{}

// Compress implements Codec.
func (None) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

// Decompress implements Codec.
func (None) Decompress(src []byte, length int) ([]byte, error) {
	if len(src) != length {
		return nil, errors.Errorf("stored size %d does not match expected size %d", len(src), length)
	}
	dst := make([]byte, length)
	copy(dst, src)
	return dst, nil
}

// Zstd compresses with zstd at the configured level.
type Zstd struct {
	Level int
}

// Compress implements Codec.
func (c Zstd) Compress(src []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.Level)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dst := encoder.EncodeAll(src, nil)
	if err := encoder.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return dst, nil
}

// Decompress implements Codec.
func (c Zstd) Decompress(src []byte, length int) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer decoder.Close()

	dst, err := decoder.DecodeAll(src, make([]byte, 0, length))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(dst) != length {
		return nil, errors.Errorf("decompressed size %d does not match expected size %d", len(dst), length)
	}
	return dst, nil
}

// LZMA compresses with the lzma format.
type LZMA struct{}

// Compress implements Codec.
func (LZMA) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// Decompress implements Codec.
func (LZMA) Decompress(src []byte, length int) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dst := make([]byte, length)
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, errors.WithStack(err)
	}
	return dst, nil
}
