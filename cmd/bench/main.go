// bench - bencode size benchmark runner
//
// Compares bencode wire size against minified JSON for .torrent files:
//   - Bytes on wire, raw and zstd-compressed
//
// Output: summary table, optional CSV
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/pflag"

	"github.com/Neumenon/bencode/bencode"
	"github.com/Neumenon/bencode/torrent"
)

type CaseResult struct {
	Name         string
	BencodeBytes int
	JSONBytes    int
	BytesSaved   int
	BytesPct     float64
	BencodeZstd  int
	JSONZstd     int
	ZstdPct      float64
}

func main() {
	fs := pflag.NewFlagSet("bench", pflag.ExitOnError)
	csvPath := fs.String("csv", "", "write per-case results to this file")
	fs.Parse(os.Args[1:])

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: bench [--csv results.csv] file.torrent...")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "bencode benchmark runner\n")
	fmt.Fprintf(os.Stderr, "========================\n")
	fmt.Fprintf(os.Stderr, "Cases: %d\n\n", len(files))

	var results []CaseResult
	var totalBencode, totalJSON, totalBencodeZ, totalJSONZ int

	for _, path := range files {
		data, err := loadRaw(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", path, err)
			continue
		}
		v, err := bencode.Unmarshal(data, torrent.MetaInfoSchema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: decode error: %v\n", path, err)
			continue
		}
		jsonData, err := bencode.ToJSON(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: convert error: %v\n", path, err)
			continue
		}

		bencodeBytes := len(data)
		jsonBytes := len(jsonData)
		saved := jsonBytes - bencodeBytes
		pct := 0.0
		if jsonBytes > 0 {
			pct = float64(saved) / float64(jsonBytes) * 100.0
		}
		bz := zstdSize(data)
		jz := zstdSize(jsonData)
		zpct := 0.0
		if jz > 0 {
			zpct = float64(jz-bz) / float64(jz) * 100.0
		}

		results = append(results, CaseResult{
			Name:         filepath.Base(path),
			BencodeBytes: bencodeBytes,
			JSONBytes:    jsonBytes,
			BytesSaved:   saved,
			BytesPct:     pct,
			BencodeZstd:  bz,
			JSONZstd:     jz,
			ZstdPct:      zpct,
		})
		totalBencode += bencodeBytes
		totalJSON += jsonBytes
		totalBencodeZ += bz
		totalJSONZ += jz
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No usable cases")
		os.Exit(1)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].BytesPct > results[j].BytesPct
	})

	fmt.Printf("%-30s %12s %12s %8s %10s %10s %8s\n",
		"case", "bencode", "json", "saved", "bencode.z", "json.z", "saved.z")
	for _, r := range results {
		fmt.Printf("%-30s %12d %12d %7.1f%% %10d %10d %7.1f%%\n",
			truncateName(r.Name, 30), r.BencodeBytes, r.JSONBytes, r.BytesPct,
			r.BencodeZstd, r.JSONZstd, r.ZstdPct)
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:         %d\n", len(results))
	fmt.Printf("JSON total:    %d bytes (%d compressed)\n", totalJSON, totalJSONZ)
	fmt.Printf("bencode total: %d bytes (%d compressed)\n", totalBencode, totalBencodeZ)
	fmt.Printf("Bytes saved:   %d (%.1f%%)\n",
		totalJSON-totalBencode, float64(totalJSON-totalBencode)/float64(totalJSON)*100)

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot write CSV: %v\n", err)
			os.Exit(1)
		}
		writeCSV(f, results)
		f.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)
	}
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// loadRaw reads a torrent file's bencode bytes, decompressing
// zstd-compressed files so sizes compare the actual documents.
func loadRaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return io.ReadAll(br)
}

func zstdSize(data []byte) int {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return 0
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return 0
	}
	if err := zw.Close(); err != nil {
		return 0
	}
	return buf.Len()
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,bencode_bytes,json_bytes,bytes_saved,bytes_pct,bencode_zstd,json_zstd,zstd_pct")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%.1f,%d,%d,%.1f\n",
			r.Name, r.BencodeBytes, r.JSONBytes, r.BytesSaved, r.BytesPct,
			r.BencodeZstd, r.JSONZstd, r.ZstdPct)
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
