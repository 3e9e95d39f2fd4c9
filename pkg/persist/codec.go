// Package persist saves and loads state files. Writes go through a temp file
// and a rename, so a reader never sees a partial file.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
)

// Codec serializes one state value.
type Codec interface {
	Encode(w io.Writer, state any) error
	Decode(r io.Reader, state any) error
	// Extension is appended to the basename, e.g. ".gob".
	Extension() string
}

// GobCodec stores state in gob encoding.
type GobCodec struct{}

// Encode implements Codec.
func (GobCodec) Encode(w io.Writer, state any) error {
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (GobCodec) Decode(r io.Reader, state any) error {
	if err := gob.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (GobCodec) Extension() string { return ".gob" }

// JSONCodec stores state as JSON. An empty Indent writes compact JSON.
type JSONCodec struct {
	Indent string
}

// Encode implements Codec.
func (c JSONCodec) Encode(w io.Writer, state any) error {
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}

	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (JSONCodec) Decode(r io.Reader, state any) error {
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (JSONCodec) Extension() string { return ".json" }
