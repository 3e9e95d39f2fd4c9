// Package cache stores compiled component definitions in memory, keyed by
// the content they were compiled from.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
)

// ErrCorruptEntry is returned when a cached payload cannot be decoded.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Key identifies one compilation: the source bytes plus every input that
// changes the output.
type Key [sha256.Size]byte

// NewKey derives the key of source compiled as fileID under moduleName.
func NewKey(fileID int, moduleName string, source []byte) Key {
	h := sha256.New()

	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], uint64(fileID)) //nolint:gosec // file ids are small and non-negative

	h.Write(id[:])
	h.Write([]byte(moduleName))
	h.Write([]byte{0})
	h.Write(source)

	var key Key

	copy(key[:], h.Sum(nil))

	return key
}

// String returns the hex form of the key.
func (k Key) String() string {
	return fmt.Sprintf("%x", k[:])
}

// envelope is the gob payload of one entry. gob drops a pointer to a zero
// value, so EmptyWhen lists the walk positions of nodes whose condition is
// present but empty.
type envelope struct {
	Definition compdef.Definition
	EmptyWhen  []int
}

// encode serializes def with gob and compresses it with an LZ4 block.
func encode(def compdef.Definition) ([]byte, int, error) {
	var buf bytes.Buffer

	env := envelope{Definition: def, EmptyWhen: emptyWhenPositions(def)}

	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, 0, fmt.Errorf("cache: encode definition: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("cache: compress definition: %w", err)
	}

	if written == 0 {
		// Incompressible input; keep it raw.
		return buf.Bytes(), -buf.Len(), nil
	}

	return compressed[:written], buf.Len(), nil
}

// decode reverses encode. A negative rawSize marks an uncompressed payload.
func decode(payload []byte, rawSize int) (compdef.Definition, error) {
	raw := payload

	if rawSize > 0 {
		raw = make([]byte, rawSize)

		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil || n != rawSize {
			return compdef.Definition{}, ErrCorruptEntry
		}
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return compdef.Definition{}, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	restoreEmptyMaps(env.Definition)
	restoreEmptyWhen(env.Definition, env.EmptyWhen)

	return env.Definition, nil
}

func emptyWhenPositions(def compdef.Definition) []int {
	var positions []int

	pos := 0

	compdef.WalkDefinition(def, func(node, _ *compdef.ComponentDef) bool {
		if node.When != nil && *node.When == "" {
			positions = append(positions, pos)
		}

		pos++

		return true
	})

	return positions
}

// restoreEmptyWhen sets an empty condition on the nodes at positions, in
// the walk order used by emptyWhenPositions.
func restoreEmptyWhen(def compdef.Definition, positions []int) {
	if len(positions) == 0 {
		return
	}

	pos := 0

	compdef.WalkDefinition(def, func(node, _ *compdef.ComponentDef) bool {
		if len(positions) > 0 && positions[0] == pos {
			empty := ""
			node.When = &empty
			positions = positions[1:]
		}

		pos++

		return true
	})
}

// restoreEmptyMaps undoes gob dropping empty maps, which would otherwise
// turn an empty script summary into nulls.
func restoreEmptyMaps(def compdef.Definition) {
	compdef.WalkDefinition(def, func(node, _ *compdef.ComponentDef) bool {
		if sc := node.ScriptCollected; sc != nil {
			if sc.Vars == nil {
				sc.Vars = map[string]compdef.Declaration{}
			}

			if sc.Functions == nil {
				sc.Functions = map[string]compdef.Declaration{}
			}
		}

		return true
	})
}
