package torrent

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Infohash is the BEP 3 SHA-1 digest of the bencoded info dictionary.
type Infohash [sha1.Size]byte

// InfohashV2 is the BEP 52 SHA-256 digest of the same bytes.
type InfohashV2 [sha256.Size]byte

// InfohashOf hashes the raw bencoded bytes of an info dictionary.
func InfohashOf(rawInfo []byte) Infohash {
	return sha1.Sum(rawInfo)
}

// InfohashV2Of hashes the raw bencoded bytes of an info dictionary.
func InfohashV2Of(rawInfo []byte) InfohashV2 {
	return sha256.Sum256(rawInfo)
}

// String returns the lowercase hex form used in magnet links.
func (h Infohash) String() string {
	return hex.EncodeToString(h[:])
}

func (h InfohashV2) String() string {
	return hex.EncodeToString(h[:])
}

// ParseInfohash reads a 40-digit hex infohash.
func ParseInfohash(s string) (Infohash, error) {
	var h Infohash
	if hex.DecodedLen(len(s)) != len(h) {
		return h, fmt.Errorf("torrent: infohash must be %d hex digits, got %d", hex.EncodedLen(len(h)), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("torrent: parsing infohash: %w", err)
	}
	return h, nil
}
