package core

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"slices"
	"sort"
	"time"
)

// FS returns a read-only flat file system with one file per entry, named like
// the extracted output files. Files are decoded when opened.
func (a *Archive) FS() fs.FS {
	names := make([]string, 0, len(a.index))
	byName := make(map[string]Entry, len(a.index))
	for _, i := range a.index {
		e := a.entries[i]
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Strings(names)
	return &archiveFS{a: a, names: names, byName: byName}
}

type archiveFS struct {
	a      *Archive
	names  []string
	byName map[string]Entry
}

func (f *archiveFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		entries := make([]fs.DirEntry, len(f.names))
		for i, n := range f.names {
			entries[i] = &dirEntry{a: f.a, e: f.byName[n]}
		}
		return &rootDir{entries: entries}, nil
	}

	e, ok := f.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data, err := f.a.DecodeEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &entryFile{
		Reader: bytes.NewReader(data),
		info:   fileInfo{name: name, size: int64(len(data))},
	}, nil
}

type entryFile struct {
	*bytes.Reader
	info fileInfo
}

func (f *entryFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *entryFile) Close() error               { return nil }

type rootDir struct {
	entries []fs.DirEntry
	offset  int
}

func (d *rootDir) Stat() (fs.FileInfo, error) { return fileInfo{name: ".", dir: true}, nil }
func (d *rootDir) Close() error               { return nil }

func (d *rootDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: errors.New("is a directory")}
}

func (d *rootDir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return slices.Clone(rest), nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.offset += n
	return slices.Clone(rest[:n]), nil
}

// dirEntry reports the decoded size from the block header without decoding.
type dirEntry struct {
	a *Archive
	e Entry
}

func (d *dirEntry) Name() string      { return d.e.Name() }
func (d *dirEntry) IsDir() bool       { return false }
func (d *dirEntry) Type() fs.FileMode { return 0 }

func (d *dirEntry) Info() (fs.FileInfo, error) {
	hdr, err := d.a.BlockHeader(d.e)
	if err != nil {
		return nil, err
	}
	size, err := hdr.Effective()
	if err != nil {
		return nil, err
	}
	return fileInfo{name: d.e.Name(), size: int64(size)}, nil
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
