package torrent

import (
	"fmt"
	"time"

	"github.com/Neumenon/bencode/bencode"
)

// Schemas for BEP 3 metainfo. Field declaration order matches the byte
// order of the keys, so the default emit is already the canonical form
// trackers and clients hash.
var (
	MetaInfoSchema *bencode.Schema
	InfoSchema     *bencode.Schema

	fileSchema *bencode.Schema
)

func init() {
	fileSchema = bencode.Struct("torrent.File",
		bencode.Field("length", bencode.Integer()),
		bencode.Field("path", bencode.ListOf(bencode.Text())),
	)
	InfoSchema = bencode.Struct("torrent.Info",
		bencode.Field("files", bencode.ListOf(fileSchema), bencode.WithOptional()),
		bencode.Field("length", bencode.Integer(), bencode.WithOptional()),
		bencode.Field("name", bencode.Text()),
		bencode.Field("piece length", bencode.Integer()),
		bencode.Field("pieces", bencode.Binary(), bencode.WithOptional()),
		bencode.Field("private", bencode.Integer(), bencode.WithOptional()),
	)
	MetaInfoSchema = bencode.Struct("torrent.MetaInfo",
		bencode.Field("announce", bencode.Text(), bencode.WithOptional()),
		bencode.Field("announce-list", bencode.ListOf(bencode.ListOf(bencode.Text())), bencode.WithOptional()),
		bencode.Field("comment", bencode.Text(), bencode.WithOptional()),
		bencode.Field("created by", bencode.Text(), bencode.WithOptional()),
		bencode.Field("creation date", bencode.Integer(), bencode.WithOptional()),
		bencode.Field("encoding", bencode.Text(), bencode.WithOptional()),
		bencode.Field("info", InfoSchema, bencode.WithCapture()),
	)

	bencode.DefaultRegistry.Register("torrent.File", fileSchema)
	bencode.DefaultRegistry.Register("torrent.Info", InfoSchema)
	bencode.DefaultRegistry.Register("torrent.MetaInfo", MetaInfoSchema)
}

// MetaInfo is a parsed .torrent file.
type MetaInfo struct {
	Announce     string
	AnnounceList [][]string
	Comment      string
	CreatedBy    string
	CreationDate time.Time
	Encoding     string
	Info         Info

	// RawInfo is the exact byte span the info dictionary occupied in
	// the source, the input to both infohashes.
	RawInfo []byte

	InfohashV1 Infohash
	InfohashV2 InfohashV2
}

// Info is the info dictionary of a torrent. Exactly one of Length
// (single-file) and Files (multi-file) is present.
type Info struct {
	Name        string
	PieceLength int64
	Pieces      []byte
	Length      int64
	Files       []FileEntry
	Private     bool

	multiFile bool
}

// FileEntry is one file of a multi-file torrent.
type FileEntry struct {
	Length int64
	Path   []string
}

// Parse decodes a metainfo document and computes its infohashes over
// the info dictionary's original bytes, not a re-encoding.
func Parse(data []byte) (*MetaInfo, error) {
	v, rng, err := bencode.UnmarshalRange(data, MetaInfoSchema)
	if err != nil {
		return nil, fmt.Errorf("torrent: %w", err)
	}

	m := &MetaInfo{}
	if f := v.Field("announce"); f != nil {
		m.Announce, _ = f.AsText()
	}
	if f := v.Field("announce-list"); f != nil {
		tiers, _ := f.AsList()
		for _, tier := range tiers {
			urls, err := tier.AsList()
			if err != nil {
				return nil, fmt.Errorf("torrent: announce-list: %w", err)
			}
			out := make([]string, 0, len(urls))
			for _, u := range urls {
				s, err := u.AsText()
				if err != nil {
					return nil, fmt.Errorf("torrent: announce-list: %w", err)
				}
				out = append(out, s)
			}
			m.AnnounceList = append(m.AnnounceList, out)
		}
	}
	if f := v.Field("comment"); f != nil {
		m.Comment, _ = f.AsText()
	}
	if f := v.Field("created by"); f != nil {
		m.CreatedBy, _ = f.AsText()
	}
	if f := v.Field("creation date"); f != nil {
		secs, _ := f.AsInt()
		m.CreationDate = time.Unix(secs, 0).UTC()
	}
	if f := v.Field("encoding"); f != nil {
		m.Encoding, _ = f.AsText()
	}

	info, err := buildInfo(v.Field("info"))
	if err != nil {
		return nil, err
	}
	m.Info = info

	// The info field is required and capture-marked, so the range is
	// always present when decoding succeeded.
	raw := make([]byte, rng.Length)
	copy(raw, data[rng.Offset:rng.Offset+rng.Length])
	m.RawInfo = raw
	m.InfohashV1 = InfohashOf(raw)
	m.InfohashV2 = InfohashV2Of(raw)
	return m, nil
}

func buildInfo(v *bencode.Value) (Info, error) {
	var info Info
	name, err := v.Field("name").AsText()
	if err != nil {
		return info, fmt.Errorf("torrent: info name: %w", err)
	}
	info.Name = name
	info.PieceLength, err = v.Field("piece length").AsInt()
	if err != nil {
		return info, fmt.Errorf("torrent: piece length: %w", err)
	}
	if f := v.Field("pieces"); f != nil {
		info.Pieces, _ = f.AsBytes()
		if len(info.Pieces)%20 != 0 {
			return info, fmt.Errorf("torrent: pieces length %d is not a multiple of 20", len(info.Pieces))
		}
	}
	if f := v.Field("private"); f != nil {
		p, _ := f.AsInt()
		info.Private = p != 0
	}

	length := v.Field("length")
	files := v.Field("files")
	switch {
	case length != nil && files != nil:
		return info, fmt.Errorf("torrent: info has both length and files")
	case length != nil:
		info.Length, _ = length.AsInt()
	case files != nil:
		info.multiFile = true
		items, _ := files.AsList()
		for i, item := range items {
			fl, err := item.Field("length").AsInt()
			if err != nil {
				return info, fmt.Errorf("torrent: files[%d]: %w", i, err)
			}
			parts, _ := item.Field("path").AsList()
			path := make([]string, 0, len(parts))
			for _, p := range parts {
				s, err := p.AsText()
				if err != nil {
					return info, fmt.Errorf("torrent: files[%d] path: %w", i, err)
				}
				path = append(path, s)
			}
			info.Files = append(info.Files, FileEntry{Length: fl, Path: path})
		}
	default:
		return info, fmt.Errorf("torrent: info has neither length nor files")
	}
	return info, nil
}

// MultiFile reports whether the torrent carries a files list rather
// than a single length.
func (i *Info) MultiFile() bool {
	return i.multiFile
}

// TotalLength returns the payload size across all files.
func (i *Info) TotalLength() int64 {
	if !i.multiFile {
		return i.Length
	}
	var total int64
	for _, f := range i.Files {
		total += f.Length
	}
	return total
}

// PieceCount returns the number of piece hashes.
func (i *Info) PieceCount() int {
	return len(i.Pieces) / 20
}

// Trackers returns every tracker URL, the primary announce first, then
// the announce-list tiers in order, without duplicates.
func (m *MetaInfo) Trackers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}
