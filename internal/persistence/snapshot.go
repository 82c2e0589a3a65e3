package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/greenfield-games/ecoquest/internal/engine"
)

// snapshotFileVersion guards the export format.
const snapshotFileVersion = 1

type snapshotFile struct {
	Version  int             `json:"version"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// ExportSnapshot writes a zstd-compressed JSON snapshot to path, creating
// parent directories as needed. The write goes through a temp file and
// rename so a crash never leaves a truncated export.
func ExportSnapshot(path string, snap engine.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	bw := bufio.NewWriter(f)
	enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("zstd writer: %w", err)
	}

	werr := json.NewEncoder(enc).Encode(snapshotFile{Version: snapshotFileVersion, Snapshot: snap})
	if cerr := enc.Close(); werr == nil {
		werr = cerr
	}
	if ferr := bw.Flush(); werr == nil {
		werr = ferr
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", werr)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ImportSnapshot reads a snapshot export written by ExportSnapshot.
func ImportSnapshot(path string) (engine.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var file snapshotFile
	if err := json.NewDecoder(dec).Decode(&file); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if file.Version != snapshotFileVersion {
		return engine.Snapshot{}, fmt.Errorf("unsupported snapshot version %d", file.Version)
	}
	return file.Snapshot, nil
}
