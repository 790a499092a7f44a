package torrent

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlain(t *testing.T) {
	data := makeSingleFileTorrent(t)
	path := filepath.Join(t.TempDir(), "test.torrent")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debian.iso", m.Info.Name)
}

func TestLoadZstd(t *testing.T) {
	data := makeSingleFileTorrent(t)
	want, err := Parse(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "test.torrent.zst")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	// Decompression must not disturb the hashed bytes.
	assert.Equal(t, want.InfohashV1, m.InfohashV1)
	assert.Equal(t, want.RawInfo, m.RawInfo)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.torrent"))
	assert.Error(t, err)
}

func TestReadFromStream(t *testing.T) {
	data := makeSingleFileTorrent(t)
	m, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "debian.iso", m.Info.Name)
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not bencode at all")))
	assert.Error(t, err)

	// Shorter than the magic probe.
	_, err = Read(bytes.NewReader([]byte("d")))
	assert.Error(t, err)
}
