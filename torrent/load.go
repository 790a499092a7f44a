package torrent

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// zstd frame magic, little-endian 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Load reads and parses a metainfo file. Files compressed with zstd
// (.torrent.zst) are detected by their magic and decompressed
// transparently.
func Load(path string) (*MetaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("torrent: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read reads and parses a metainfo document from r, decompressing
// transparently when the stream is zstd-compressed.
func Read(r io.Reader) (*MetaInfo, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("torrent: %w", err)
	}

	var data []byte
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("torrent: opening zstd stream: %w", err)
		}
		defer zr.Close()
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("torrent: decompressing: %w", err)
		}
	} else {
		data, err = io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("torrent: %w", err)
		}
	}
	return Parse(data)
}
