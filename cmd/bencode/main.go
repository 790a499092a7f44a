// bencode - schema-driven bencode CLI tool
//
// Usage:
//
//	bencode info [--pieces] [file]          Summarize a .torrent file
//	bencode hash [file]                     Print infohashes and magnet link
//	bencode json [--schema NAME] [file]     Convert bencode to JSON
//	bencode encode [--schema NAME] [file]   Convert JSON back to bencode
//	bencode schemas                         List registered schemas
//	bencode version                         Print version info
//
// Files compressed with zstd (.torrent.zst) are read transparently.
// If no file is given, reads from stdin.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/pflag"

	"github.com/Neumenon/bencode/bencode"
	"github.com/Neumenon/bencode/torrent"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "info":
		cmdInfo(args)
	case "hash":
		cmdHash(args)
	case "json":
		cmdJSON(args)
	case "encode", "from-json":
		cmdEncode(args)
	case "schemas":
		cmdSchemas()
	case "version", "-v", "--version":
		fmt.Printf("bencode %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `bencode - schema-driven bencode CLI tool

Usage:
  bencode info [--pieces] [file]          Summarize a .torrent file
  bencode hash [file]                     Print infohashes and magnet link
  bencode json [--schema NAME] [file]     Convert bencode to JSON
  bencode encode [--schema NAME] [file]   Convert JSON back to bencode
  bencode schemas                         List registered schemas
  bencode version                         Print version info

Options:
  --pieces            Also print the per-piece hashes (info)
  --schema NAME       Registered schema to decode against (default: torrent.MetaInfo)
  --max-depth N       Nesting limit for the decode (json)
  --sort-keys         Emit dictionary keys in byte order (encode)

zstd-compressed input is detected by magic and decompressed transparently.
If no file is given, reads from stdin.

Examples:
  bencode info debian.iso.torrent
  bencode hash debian.iso.torrent.zst
  bencode json debian.iso.torrent | jq .info.name
  bencode json --schema torrent.Info info.bencode
  cat meta.json | bencode encode > meta.torrent
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "bencode: "+format+"\n", args...)
	os.Exit(1)
}

// openInput resolves the trailing file argument, defaulting to stdin.
func openInput(args []string) io.ReadCloser {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin
	}
	f, err := os.Open(args[0])
	if err != nil {
		fatal("open file: %v", err)
	}
	return f
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// readInput slurps the input, decompressing a zstd stream when the
// magic matches.
func readInput(r io.Reader) []byte {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		fatal("read input: %v", err)
	}
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			fatal("open zstd stream: %v", err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			fatal("decompress input: %v", err)
		}
		return data
	}
	data, err := io.ReadAll(br)
	if err != nil {
		fatal("read input: %v", err)
	}
	return data
}

func cmdInfo(args []string) {
	fs := pflag.NewFlagSet("info", pflag.ExitOnError)
	showPieces := fs.Bool("pieces", false, "also print per-piece hashes")
	fs.Parse(args)

	in := openInput(fs.Args())
	defer in.Close()
	m, err := torrent.Read(in)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Name:         %s\n", m.Info.Name)
	fmt.Printf("Infohash v1:  %s\n", m.InfohashV1)
	fmt.Printf("Infohash v2:  %s\n", m.InfohashV2)
	fmt.Printf("Piece length: %d\n", m.Info.PieceLength)
	fmt.Printf("Pieces:       %d\n", m.Info.PieceCount())
	fmt.Printf("Total size:   %d\n", m.Info.TotalLength())
	if m.Info.Private {
		fmt.Printf("Private:      true\n")
	}
	if !m.CreationDate.IsZero() {
		fmt.Printf("Created:      %s\n", m.CreationDate.Format("2006-01-02 15:04:05 MST"))
	}
	if m.CreatedBy != "" {
		fmt.Printf("Created by:   %s\n", m.CreatedBy)
	}
	if m.Comment != "" {
		fmt.Printf("Comment:      %s\n", m.Comment)
	}
	if trackers := m.Trackers(); len(trackers) > 0 {
		fmt.Println("Trackers:")
		for _, tr := range trackers {
			fmt.Printf("  %s\n", tr)
		}
	}
	if m.Info.MultiFile() {
		fmt.Printf("Files:        %d\n", len(m.Info.Files))
		for _, f := range m.Info.Files {
			fmt.Printf("  %12d  %s\n", f.Length, joinPath(f.Path))
		}
	}
	if *showPieces {
		fmt.Println("Piece hashes:")
		for i := 0; i < m.Info.PieceCount(); i++ {
			fmt.Printf("  %6d  %x\n", i, m.Info.Pieces[i*20:(i+1)*20])
		}
	}
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}

func cmdHash(args []string) {
	fs := pflag.NewFlagSet("hash", pflag.ExitOnError)
	fs.Parse(args)

	in := openInput(fs.Args())
	defer in.Close()
	m, err := torrent.Read(in)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("v1: %s\n", m.InfohashV1)
	fmt.Printf("v2: %s\n", m.InfohashV2)
	fmt.Printf("magnet: %s\n", m.Magnet())
}

func lookupSchema(name string) *bencode.Schema {
	s, ok := bencode.DefaultRegistry.Lookup(name)
	if !ok {
		fatal("unknown schema %q (try: bencode schemas)", name)
	}
	return s
}

func cmdJSON(args []string) {
	fs := pflag.NewFlagSet("json", pflag.ExitOnError)
	schemaName := fs.String("schema", "torrent.MetaInfo", "registered schema to decode against")
	maxDepth := fs.Int("max-depth", 0, "nesting limit for the decode (0 means the default)")
	fs.Parse(args)

	in := openInput(fs.Args())
	defer in.Close()
	data := readInput(in)

	opts := bencode.DefaultDecodeOptions()
	if *maxDepth > 0 {
		opts.MaxDepth = *maxDepth
	}
	r := bytes.NewReader(data)
	v, _, err := bencode.DecodeWithOptions(context.Background(), r, lookupSchema(*schemaName), opts)
	if err != nil {
		fatal("decode: %v", err)
	}
	if r.Len() > 0 {
		fatal("decode: %d trailing bytes after value", r.Len())
	}
	out, err := bencode.ToJSON(v)
	if err != nil {
		fatal("convert: %v", err)
	}
	fmt.Println(string(out))
}

func cmdEncode(args []string) {
	fs := pflag.NewFlagSet("encode", pflag.ExitOnError)
	schemaName := fs.String("schema", "torrent.MetaInfo", "registered schema to encode against")
	sortKeys := fs.Bool("sort-keys", false, "emit dictionary keys in byte order")
	fs.Parse(args)

	in := openInput(fs.Args())
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		fatal("read input: %v", err)
	}

	s := lookupSchema(*schemaName)
	v, err := bencode.FromJSON(data, s)
	if err != nil {
		fatal("parse JSON: %v", err)
	}
	opts := bencode.DefaultEncodeOptions()
	opts.SortKeys = *sortKeys
	if err := bencode.EncodeWithOptions(os.Stdout, s, v, opts); err != nil {
		fatal("encode: %v", err)
	}
}

func cmdSchemas() {
	for _, name := range bencode.DefaultRegistry.Names() {
		s, _ := bencode.DefaultRegistry.Lookup(name)
		fmt.Printf("%-20s %s", name, s.Kind())
		if s.Kind() == bencode.KindStruct {
			fmt.Printf(" (%d fields)", s.NumFields())
		}
		fmt.Println()
	}
}
