package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/uimarkup/pkg/config"
)

// formatJSON is the default machine-readable format.
const formatJSON = config.FormatJSON

// ErrUnsupportedFormat indicates an unknown --format value.
var ErrUnsupportedFormat = errors.New("unsupported format")

// writeEncoded writes value in one of the config output formats. YAML goes
// through the JSON encoding so both formats share field names.
func writeEncoded(w io.Writer, value any, format string) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}

		return nil
	case config.FormatCompact:
		if err := json.NewEncoder(w).Encode(value); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}

		return nil
	case config.FormatYAML:
		generic, err := toGeneric(value)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func toGeneric(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	return generic, nil
}
