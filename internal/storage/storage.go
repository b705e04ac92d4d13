// Package storage persists trials and segmented trial trees to disk and
// restores them losslessly. A bare trial becomes a single file; a segmented
// tree becomes a directory with one file per leaf cycle, SQLite-backed, with
// HDF-style group prefixes inside each file for nesting levels between the
// directory and the leaf.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gaitworks/gaitkit/internal/model"
)

// FileExt is the extension of leaf trial files.
const FileExt = ".db"

var (
	// ErrTargetExists is returned when the save target already exists.
	// Existing trials are never silently overwritten.
	ErrTargetExists = errors.New("target path already exists")

	// ErrNoData is returned when there is nothing to write.
	ErrNoData = errors.New("no data to save")

	// ErrTargetShape is returned when the target path shape does not match
	// the container: segmented trees need a directory path, bare trials a
	// suffixed file path. Checked before any I/O.
	ErrTargetShape = errors.New("target path shape does not match container")

	// ErrFormat is returned when a persisted file or group contains neither
	// a known category nor events.
	ErrFormat = errors.New("file does not have the correct format")
)

// Save persists a trial or segmented container to path.
func Save(node model.Node, path string) error {
	switch v := node.(type) {
	case *model.Trial:
		if filepath.Ext(path) == "" {
			return fmt.Errorf("%w: cannot save a trial to a folder path %s", ErrTargetShape, path)
		}
		if v.Empty() {
			return ErrNoData
		}
		if err := checkNotExists(path); err != nil {
			return err
		}
		return writeFile(path, []groupWrite{{grp: "", trial: v}})
	case *model.TrialCycles:
		return saveTree(v.Branch(), path)
	case *model.Branch:
		return saveTree(v, path)
	}
	return fmt.Errorf("cannot save container of type %T", node)
}

// saveTree persists a segmented tree: first-level keys become directories,
// the innermost container level becomes one file per leaf, and intermediate
// levels become group prefixes inside the leaf files.
func saveTree(root *model.Branch, path string) error {
	if filepath.Ext(path) != "" {
		return fmt.Errorf("%w: cannot save a segmented trial to a single file %s", ErrTargetShape, path)
	}
	if root.Len() == 0 {
		return ErrNoData
	}
	if err := checkNotExists(path); err != nil {
		return err
	}

	// Plan every leaf write before touching the filesystem.
	files, order, err := planTree(root, path)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return ErrNoData
	}

	for _, file := range order {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(file), err)
		}
		if err := writeFile(file, files[file]); err != nil {
			return err
		}
	}
	return nil
}

// planTree maps every leaf trial of the tree to its file path and group
// prefix. Leaves directly under the root become files in the root directory.
func planTree(root *model.Branch, path string) (map[string][]groupWrite, []string, error) {
	files := make(map[string][]groupWrite)
	var order []string

	add := func(file, grp string, trial *model.Trial) error {
		if trial.Empty() {
			return fmt.Errorf("%w: empty trial at %s group %q", ErrNoData, file, grp)
		}
		if _, ok := files[file]; !ok {
			order = append(order, file)
		}
		files[file] = append(files[file], groupWrite{grp: grp, trial: trial})
		return nil
	}

	var walkLeaves func(b *model.Branch, dir, grp string) error
	walkLeaves = func(b *model.Branch, dir, grp string) error {
		for _, key := range b.Keys() {
			child, _ := b.Get(key)
			switch c := child.(type) {
			case *model.Trial:
				if err := add(filepath.Join(dir, key+FileExt), grp, c); err != nil {
					return err
				}
			case *model.Branch:
				next := key
				if grp != "" {
					next = grp + "/" + key
				}
				if err := walkLeaves(c, dir, next); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, key := range root.Keys() {
		child, _ := root.Get(key)
		switch c := child.(type) {
		case *model.Trial:
			if err := add(filepath.Join(path, key+FileExt), "", c); err != nil {
				return nil, nil, err
			}
		case *model.Branch:
			if err := walkLeaves(c, filepath.Join(path, key), ""); err != nil {
				return nil, nil, err
			}
		}
	}
	return files, order, nil
}

// Load restores a container from path: a file loads as a bare trial, a
// directory as a segmented tree.
func Load(path string) (model.Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return loadTree(path)
	}
	return loadTrialFile(path)
}

// LoadTrial restores a bare trial from a single file.
func LoadTrial(path string) (*model.Trial, error) {
	node, err := Load(path)
	if err != nil {
		return nil, err
	}
	trial, ok := node.(*model.Trial)
	if !ok {
		return nil, fmt.Errorf("%s does not hold a bare trial", path)
	}
	return trial, nil
}

// LoadCycles restores a segmented trial directory as a TrialCycles
// container.
func LoadCycles(path string) (*model.TrialCycles, error) {
	node, err := Load(path)
	if err != nil {
		return nil, err
	}
	branch, ok := node.(*model.Branch)
	if !ok {
		return nil, fmt.Errorf("%s does not hold a segmented trial", path)
	}
	return model.CyclesFromBranch(branch)
}

func loadTrialFile(path string) (*model.Trial, error) {
	db, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	trial, err := readTrialGroup(db, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trial, nil
}

// loadTree rediscovers every leaf file under path and rebuilds the
// segmented tree: directory components and in-file group prefixes become
// branch keys, the file name becomes the innermost key.
func loadTree(path string) (*model.Branch, error) {
	var leaves []string
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == FileExt {
			rel, err := filepath.Rel(path, p)
			if err != nil {
				return err
			}
			leaves = append(leaves, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: no trial files under %s", ErrFormat, path)
	}
	sortKeys(leaves)

	root := model.NewBranch()
	for _, rel := range leaves {
		file := filepath.Join(path, rel)
		db, err := openFile(file)
		if err != nil {
			return nil, err
		}

		grps, err := readGroupKeys(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if len(grps) == 0 {
			db.Close()
			return nil, fmt.Errorf("%s: %w", file, ErrFormat)
		}
		sortKeys(grps)

		dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
		if dirs[0] == "." {
			dirs = nil
		}
		base := strings.TrimSuffix(filepath.Base(rel), FileExt)

		for _, grp := range grps {
			trial, err := readTrialGroup(db, grp)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("%s group %q: %w", file, grp, err)
			}
			keys := append([]string(nil), dirs...)
			if grp != "" {
				keys = append(keys, strings.Split(grp, "/")...)
			}
			keys = append(keys, base)
			if err := insert(root, keys, trial); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s group %q: %w", file, grp, err)
			}
		}
		db.Close()
	}
	return root, nil
}

// insert places a trial at the key chain, creating branches on the way.
func insert(root *model.Branch, keys []string, trial *model.Trial) error {
	b := root
	for _, key := range keys[:len(keys)-1] {
		child, ok := b.Get(key)
		if !ok {
			next := model.NewBranch()
			b.Add(key, next)
			b = next
			continue
		}
		next, ok := child.(*model.Branch)
		if !ok {
			return fmt.Errorf("%w: key %q holds both a trial and a subtree", ErrFormat, key)
		}
		b = next
	}
	b.Add(keys[len(keys)-1], trial)
	return nil
}

func checkNotExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

// sortKeys orders path-like keys component-wise, comparing numerically
// where both components parse as integers (cycle ids) and lexically
// otherwise.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a := strings.Split(filepath.ToSlash(keys[i]), "/")
		b := strings.Split(filepath.ToSlash(keys[j]), "/")
		for k := 0; k < len(a) && k < len(b); k++ {
			ka := strings.TrimSuffix(a[k], FileExt)
			kb := strings.TrimSuffix(b[k], FileExt)
			if ka == kb {
				continue
			}
			na, errA := strconv.Atoi(ka)
			nb, errB := strconv.Atoi(kb)
			if errA == nil && errB == nil {
				return na < nb
			}
			return ka < kb
		}
		return len(a) < len(b)
	})
}
