package memory

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSnapshotFile reads a prebuilt corpus snapshot (chunks, metadata and
// precomputed vectors) from disk. Building the snapshot is an offline
// concern; the engine only loads and swaps it.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}

	for i, chunk := range snapshot.Chunks {
		if len(chunk.Vector) == 0 {
			return nil, fmt.Errorf("snapshot chunk %d has no vector", i)
		}
		if len(chunk.Vector) != len(snapshot.Chunks[0].Vector) {
			return nil, fmt.Errorf("snapshot chunk %d dimension mismatch", i)
		}
	}
	return &snapshot, nil
}
