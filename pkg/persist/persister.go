package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// dirPerm is the mode of state directories created by Save.
const dirPerm = 0o750

// Persister reads and writes one state file of type T.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister returns a Persister for basename+codec.Extension().
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{basename: basename, codec: codec}
}

// Path returns the state file location under dir.
func (p *Persister[T]) Path(dir string) string {
	return filepath.Join(dir, p.basename+p.codec.Extension())
}

// Save writes state under dir, creating dir when needed.
func (p *Persister[T]) Save(dir string, state *T) (err error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, p.basename+".*.tmp")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	if err := p.codec.Encode(tmp, state); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("encode state: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), p.Path(dir)); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// Load reads the state stored under dir. A missing file yields an error
// matching os.ErrNotExist.
func (p *Persister[T]) Load(dir string) (*T, error) {
	f, err := os.Open(p.Path(dir))
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	defer f.Close()

	var state T

	if err := p.codec.Decode(f, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return &state, nil
}
