package cache

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Sumatoshi-tech/uimarkup/pkg/persist"
	"github.com/Sumatoshi-tech/uimarkup/pkg/version"
)

// snapshotVersion changes whenever the payload encoding does.
const snapshotVersion = 2

// snapshotName is the basename of the snapshot file in the cache dir.
const snapshotName = "definitions"

// ErrSnapshotVersion is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("cache: unsupported snapshot version")

// ErrSnapshotBuild is returned when a snapshot was written by a different
// build, whose compiler may lower the same source differently.
var ErrSnapshotBuild = errors.New("cache: snapshot from another build")

// buildStamp identifies the binary that compiled the cached definitions.
func buildStamp() string {
	info := version.Get()

	return info.Version + "+" + info.GitHash
}

// Snapshot is the persisted form of a DefinitionCache. Entries run from
// least to most recently used.
type Snapshot struct {
	Version int
	Build   string
	Entries []SnapshotEntry
}

// SnapshotEntry is one encoded definition.
type SnapshotEntry struct {
	Key         Key
	Payload     []byte
	RawSize     int
	AccessCount int64
}

// Snapshot copies the cache contents. Payloads stay encoded.
func (c *DefinitionCache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Version: snapshotVersion, Build: buildStamp(), Entries: make([]SnapshotEntry, 0, len(c.entries))}

	for entry := c.tail; entry != nil; entry = entry.prev {
		snap.Entries = append(snap.Entries, SnapshotEntry{
			Key:         entry.key,
			Payload:     entry.payload,
			RawSize:     entry.rawSize,
			AccessCount: entry.accessCount,
		})
	}

	return snap
}

// Restore adds the entries of snap, evicting as usual when the budget is
// smaller than the snapshot. It returns the number of entries kept.
// Snapshots written by another build are rejected whole.
func (c *DefinitionCache) Restore(snap Snapshot) (int, error) {
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}

	if build := buildStamp(); snap.Build != build {
		return 0, fmt.Errorf("%w: %q, running %q", ErrSnapshotBuild, snap.Build, build)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range snap.Entries {
		c.insert(e.Key, e.Payload, e.RawSize, max(e.AccessCount, 1))
	}

	return len(c.entries), nil
}

func snapshotPersister() *persist.Persister[Snapshot] {
	return persist.NewPersister[Snapshot](snapshotName, persist.GobCodec{})
}

// SaveSnapshot writes the contents of c to dir.
func SaveSnapshot(dir string, c *DefinitionCache) error {
	snap := c.Snapshot()

	if err := snapshotPersister().Save(dir, &snap); err != nil {
		return fmt.Errorf("cache: save snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot restores the snapshot stored in dir into c. A missing
// snapshot restores nothing and is not an error.
func LoadSnapshot(dir string, c *DefinitionCache) (int, error) {
	snap, err := snapshotPersister().Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("cache: load snapshot: %w", err)
	}

	return c.Restore(*snap)
}
