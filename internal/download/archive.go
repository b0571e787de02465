package download

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one (name, text) pair destined for an archive. Names must already
// be sanitized and unique; Archive does not deduplicate.
type Entry struct {
	Name string
	Text string
}

// Archive packs entries into a single ZIP byte stream.
func Archive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %q: %w", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Text)); err != nil {
			return nil, fmt.Errorf("write zip entry %q: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ChunkArchives splits entries into fixed-size groups and zips each group
// separately, for batches too large to serve as one download. chunkSize <= 0
// means a single archive.
func ChunkArchives(entries []Entry, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 || len(entries) <= chunkSize {
		archive, err := Archive(entries)
		if err != nil {
			return nil, err
		}
		return [][]byte{archive}, nil
	}

	var chunks [][]byte
	for start := 0; start < len(entries); start += chunkSize {
		end := start + chunkSize
		if end > len(entries) {
			end = len(entries)
		}
		archive, err := Archive(entries[start:end])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, archive)
	}
	return chunks, nil
}

// UniqueName appends a 1-based index to a base name, the convention callers
// use to keep archive entry names unique.
func UniqueName(base string, i int) string {
	return fmt.Sprintf("%s_%d.txt", base, i+1)
}
