// Package torrent parses BitTorrent metainfo (.torrent) files on top
// of the bencode codec.
//
// The info dictionary's byte span is captured during the decode, so
// the v1 (SHA-1) and v2 (SHA-256) infohashes are computed over the
// exact bytes that were on disk, never a re-encoding. Unknown keys
// anywhere in the file are tolerated and skipped.
//
//	m, err := torrent.Load("debian.iso.torrent")
//	fmt.Println(m.InfohashV1, m.Info.Name, m.Info.TotalLength())
//	fmt.Println(m.Magnet())
//
// Files compressed with zstd are decompressed transparently. The
// package registers its schemas as torrent.MetaInfo, torrent.Info and
// torrent.File in bencode.DefaultRegistry.
package torrent
