package bundle_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/lakevm/lake/internal/bundle"
)

// buildBundle appends a synthetic bundle footer (grounded on
// the bundle packager's own writer) after exe,
// for resources, and returns the full byte slice.
func buildBundle(t *testing.T, exe []byte, resources map[string]string) []byte {
	t.Helper()
	var body bytes.Buffer

	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(resources)))
	body.Write(countBuf[:])

	// deterministic order for the test
	paths := make([]string, 0, len(resources))
	for p := range resources {
		paths = append(paths, p)
	}
	sortStrings(paths)

	ht := make([]int, 64<<10)
	for _, path := range paths {
		data := resources[path]
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock([]byte(data), dst, ht)
		require.NoError(t, err)
		require.Greater(t, n, 0)
		dst = dst[:n]

		writeUint64(&body, uint64(len(path)))
		body.WriteString(path)
		writeUint64(&body, uint64(n))
		writeUint64(&body, uint64(len(data)))
		body.Write(dst)
	}

	writeUint64(&body, uint64(body.Len()))
	writeUint64(&body, bundle.Magic)

	out := append([]byte(nil), exe...)
	out = append(out, body.Bytes()...)
	return out
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

type sliceReaderAt []byte

func (s sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, s[off:]), nil
}

func TestReadExtractsResources(t *testing.T) {
	exe := []byte("#!fake-interpreter-binary\x00\x01\x02")
	data := buildBundle(t, exe, map[string]string{
		"lib/util.lake": "push 1\npush 2\nadd\n",
		"main.lake":     "push 3\n",
	})

	resources, err := bundle.Read(sliceReaderAt(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, resources, 2)

	byPath := make(map[string]string, len(resources))
	for _, r := range resources {
		byPath[r.Path] = string(r.Data)
	}
	require.Equal(t, "push 1\npush 2\nadd\n", byPath["lib/util.lake"])
	require.Equal(t, "push 3\n", byPath["main.lake"])
}

func TestReadReturnsNilForPlainExecutable(t *testing.T) {
	exe := []byte("just a regular binary, no bundle attached")
	resources, err := bundle.Read(sliceReaderAt(exe), int64(len(exe)))
	require.NoError(t, err)
	require.Nil(t, resources)
}

func TestReadRejectsTruncatedBody(t *testing.T) {
	exe := []byte("exe")
	full := buildBundle(t, exe, map[string]string{"a.lake": "push 1\n"})
	// Cut a few bytes out of the body while keeping the trailing footer
	// intact, so the footer's declared bundle size is now a lie relative
	// to what actually precedes it.
	cut := len(full) - 16 - 5
	truncated := append(append([]byte(nil), full[:cut]...), full[len(full)-16:]...)
	_, err := bundle.Read(sliceReaderAt(truncated), int64(len(truncated)))
	require.Error(t, err)
}
