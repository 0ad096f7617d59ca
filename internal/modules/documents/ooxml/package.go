// Package ooxml reads and rewrites Office Open XML packages (DOCX, PPTX) in place,
// keeping every untouched part byte for byte.
package ooxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type entry struct {
	name   string
	method uint16
	header zip.FileHeader
	data   []byte
}

type Package struct {
	entries []*entry
	index   map[string]int
}

func Open(p string) (*Package, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pkg := &Package{index: make(map[string]int, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		pkg.index[f.Name] = len(pkg.entries)
		pkg.entries = append(pkg.entries, &entry{name: f.Name, method: f.Method, header: f.FileHeader, data: b})
	}
	return pkg, nil
}

func (p *Package) Part(name string) ([]byte, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.entries[i].data, true
}

func (p *Package) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// SetPart replaces an existing part or appends a new deflated one.
func (p *Package) SetPart(name string, data []byte) {
	if i, ok := p.index[name]; ok {
		p.entries[i].data = data
		return
	}
	p.index[name] = len(p.entries)
	p.entries = append(p.entries, &entry{name: name, method: zip.Deflate})
	p.entries[len(p.entries)-1].data = data
}

// Names returns part names matching prefix and suffix, sorted.
func (p *Package) Names(prefix, suffix string) []string {
	var out []string
	for _, e := range p.entries {
		if strings.HasPrefix(e.name, prefix) && strings.HasSuffix(e.name, suffix) {
			out = append(out, e.name)
		}
	}
	sort.Strings(out)
	return out
}

// Bytes serializes the package. Entry order and timestamps come from the source, so
// the same input and edits produce identical output.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range p.entries {
		h := &zip.FileHeader{
			Name:     e.name,
			Method:   e.method,
			Modified: e.header.Modified,
		}
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the package through a temp file in the destination directory.
func (p *Package) WriteFile(dest string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	return WriteFileAtomic(dest, data)
}

func WriteFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// ResolveTarget turns a relationship target into a package part name.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(sourcePart), target)
}

// RelsPartFor returns the relationships part that belongs to part.
func RelsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}
