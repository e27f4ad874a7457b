// Package bundle reads and writes the resource section a bundle packager
// appends to an interpreter executable, an external-collaborator wire
// format described only in terms of its byte layout. Write is used by the
// CLI's --build flag (internal/maincmd) to produce a self-contained
// executable; Read is used by --exec to pull the bundled resources back
// out of the running executable.
package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// Magic is the trailing marker every valid bundle executable ends with.
const Magic uint64 = 0x12F91C8E3D1F62C2

// footerLen is the size, in bytes, of the trailing bundle-size + magic
// pair.
const footerLen = 16

// maxResourceCount guards against a corrupt or truncated footer being
// misread as an enormous resource count, the same sanity bound the
// a reader applies when walking the resource records back out.
const maxResourceCount = 1024 * 1024

// Resource is one entry extracted from a bundle.
type Resource struct {
	Path string
	Data []byte
}

// Read extracts the resources appended to the executable backing r, whose
// total length is size. r must support random access over the whole file
// (an *os.File opened on the running executable is the typical caller).
// Read returns a nil slice and a nil error if the file has no bundle
// footer at all — that is a normal, bundle-less executable, not an error;
// a footer that is present but fails to parse returns a non-nil error.
func Read(r io.ReaderAt, size int64) ([]Resource, error) {
	if size < footerLen {
		return nil, nil
	}
	footer := make([]byte, footerLen)
	if _, err := r.ReadAt(footer, size-footerLen); err != nil {
		return nil, fmt.Errorf("bundle: read footer: %w", err)
	}
	bundleSize := binary.BigEndian.Uint64(footer[:8])
	marker := binary.BigEndian.Uint64(footer[8:])
	if marker != Magic {
		return nil, nil
	}
	if int64(bundleSize) < 0 || int64(bundleSize)+footerLen > size {
		return nil, fmt.Errorf("bundle: declared size %d is inconsistent with file size %d", bundleSize, size)
	}
	start := size - footerLen - int64(bundleSize)
	body := make([]byte, bundleSize)
	if _, err := r.ReadAt(body, start); err != nil {
		return nil, fmt.Errorf("bundle: read body: %w", err)
	}
	return parse(body)
}

// parse decodes the resource-count-prefixed record sequence that makes up
// a bundle's body: a leading big-endian uint64 resource count, then each
// resource's length-prefixed record in turn.
func parse(body []byte) ([]Resource, error) {
	br := &byteReader{buf: body}
	count, err := br.uint64()
	if err != nil {
		return nil, fmt.Errorf("bundle: resource count: %w", err)
	}
	if count > maxResourceCount {
		return nil, fmt.Errorf("bundle: implausible resource count %d", count)
	}
	resources := make([]Resource, 0, count)
	for i := uint64(0); i < count; i++ {
		pathLen, err := br.uint64()
		if err != nil {
			return nil, fmt.Errorf("bundle: resource %d: path length: %w", i, err)
		}
		path, err := br.bytes(int(pathLen))
		if err != nil {
			return nil, fmt.Errorf("bundle: resource %d: path: %w", i, err)
		}
		compressedLen, err := br.uint64()
		if err != nil {
			return nil, fmt.Errorf("bundle: resource %q: compressed length: %w", path, err)
		}
		originalLen, err := br.uint64()
		if err != nil {
			return nil, fmt.Errorf("bundle: resource %q: original length: %w", path, err)
		}
		compressed, err := br.bytes(int(compressedLen))
		if err != nil {
			return nil, fmt.Errorf("bundle: resource %q: payload: %w", path, err)
		}
		data := make([]byte, originalLen)
		if originalLen > 0 {
			n, err := lz4.UncompressBlock(compressed, data)
			if err != nil {
				return nil, fmt.Errorf("bundle: resource %q: lz4 decompress: %w", path, err)
			}
			if uint64(n) != originalLen {
				return nil, fmt.Errorf("bundle: resource %q: decompressed to %d bytes, want %d", path, n, originalLen)
			}
		}
		resources = append(resources, Resource{Path: string(path), Data: data})
	}
	return resources, nil
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) uint64() (uint64, error) {
	if len(r.buf)-r.pos < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.pos < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Write copies interpreterPath's bytes to outputPath, appends resources
// LZ4-compressed in the format Read expects, and marks outputPath
// executable. The resulting file
// is a self-contained executable: run directly (with --exec) it extracts
// and runs its own bundled resources instead of requiring --source.
func Write(outputPath, interpreterPath string, resources []Resource) error {
	exe, err := os.ReadFile(interpreterPath)
	if err != nil {
		return fmt.Errorf("bundle: read interpreter %q: %w", interpreterPath, err)
	}

	var body []byte
	body = appendUint64(body, uint64(len(resources)))

	hashTable := make([]int, 64<<10)
	for _, res := range resources {
		var compressed []byte
		if len(res.Data) > 0 {
			dst := make([]byte, lz4.CompressBlockBound(len(res.Data)))
			n, err := lz4.CompressBlock(res.Data, dst, hashTable)
			if err != nil {
				return fmt.Errorf("bundle: compress %q: %w", res.Path, err)
			}
			if n == 0 {
				return fmt.Errorf("bundle: compress %q: destination buffer too small", res.Path)
			}
			compressed = dst[:n]
		}

		body = appendUint64(body, uint64(len(res.Path)))
		body = append(body, res.Path...)
		body = appendUint64(body, uint64(len(compressed)))
		body = appendUint64(body, uint64(len(res.Data)))
		body = append(body, compressed...)
	}

	footer := appendUint64(nil, uint64(len(body)))
	footer = appendUint64(footer, Magic)

	out := make([]byte, 0, len(exe)+len(body)+len(footer))
	out = append(out, exe...)
	out = append(out, body...)
	out = append(out, footer...)

	if err := os.WriteFile(outputPath, out, 0o755); err != nil {
		return fmt.Errorf("bundle: write %q: %w", outputPath, err)
	}
	return nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
