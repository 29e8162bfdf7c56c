package palette

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Version is the palette wire format version. Other versions are rejected.
const Version = 4

var (
	ErrVersionMismatch = errors.New("palette: incompatible block palette format")
	ErrFormat          = errors.New("palette: malformed block palette data")
)

// Write serializes the block specifications in id order
func (p *Palette) Write(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, int32(Version)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, int32(len(p.specs))); err != nil {
		return err
	}
	for _, spec := range p.specs {
		if err := writeSpec(bw, spec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeSpec(w io.Writer, spec Spec) error {
	if err := writeString(w, spec.Name); err != nil {
		return err
	}
	keys := spec.sortedKeys()
	if err := binary.Write(w, binary.BigEndian, int32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, spec.Properties[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("palette: string of %d bytes is too long", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Read restores a palette written by Palette.Write. Blocks receive the
// default material patches.
func Read(r io.Reader) (*Palette, error) {
	br := bufio.NewReader(r)

	var version int32
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: version %d, expected %d", ErrVersionMismatch, version, Version)
	}

	var count int32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative block count %d", ErrFormat, count)
	}

	p := &Palette{
		ids:       make(map[string]int),
		materials: DefaultMaterialProperties(),
	}
	for i := 0; i < int(count); i++ {
		spec, err := readSpec(br)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %w", ErrFormat, i, err)
		}
		key := spec.Key()
		if _, dup := p.ids[key]; dup {
			return nil, fmt.Errorf("%w: duplicate block %s", ErrFormat, key)
		}
		block := spec.toBlock()
		p.applyMaterialLocked(block)
		p.ids[key] = i
		p.specs = append(p.specs, spec)
		p.blocks = append(p.blocks, block)
	}

	p.AirID = p.Put(NewSpec("minecraft:air"))
	p.StoneID = p.Put(NewSpec("minecraft:stone"))
	p.WaterID = p.Put(NewSpec("minecraft:water"))
	return p, nil
}

func readSpec(r io.Reader) (Spec, error) {
	name, err := readString(r)
	if err != nil {
		return Spec{}, err
	}
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return Spec{}, err
	}
	if n < 0 {
		return Spec{}, fmt.Errorf("negative property count %d", n)
	}
	spec := Spec{Name: name}
	if n > 0 {
		spec.Properties = make(map[string]string, n)
	}
	for i := int32(0); i < n; i++ {
		k, err := readString(r)
		if err != nil {
			return Spec{}, err
		}
		v, err := readString(r)
		if err != nil {
			return Spec{}, err
		}
		spec.Properties[k] = v
	}
	return spec, nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
