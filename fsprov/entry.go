package fsprov

import (
	"cmp"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Kind classifies directory entries.
type Kind string

const (
	KindDir     Kind = "dir"
	KindFile    Kind = "file"
	KindSymlink Kind = "symlink"
	KindOther   Kind = "other"
)

// Entry is what the provider knows of a directory entry.
type Entry struct {
	Name    string
	Kind    Kind
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

func entryOf(name string, info fs.FileInfo) Entry {
	e := Entry{
		Name:    name,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	switch m := info.Mode(); {
	case m.IsDir():
		e.Kind = KindDir
	case m&fs.ModeSymlink != 0:
		e.Kind = KindSymlink
	case m.IsRegular():
		e.Kind = KindFile
	default:
		e.Kind = KindOther
	}
	return e
}

// list reads the entries of dir: directories first, then by name.
// Entries vanishing while listed are skipped.
func list(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	res := make([]Entry, 0, len(des))
	for _, de := range des {
		info, err := os.Lstat(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		res = append(res, entryOf(de.Name(), info))
	}
	slices.SortFunc(res, compareEntries)
	return res, nil
}

func compareEntries(a, b Entry) int {
	ad, bd := a.Kind == KindDir, b.Kind == KindDir
	switch {
	case ad && !bd:
		return -1
	case bd && !ad:
		return 1
	}
	return cmp.Compare(a.Name, b.Name)
}

// same reports whether a and b show the same data.
func same(a, b Entry) bool {
	return a.Kind == b.Kind && a.Size == b.Size && a.Mode == b.Mode && a.ModTime.Equal(b.ModTime)
}
