// Package dataset discovers stem-matched image/mask pairs under a source root.
package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/menta2k/patch-extractor/internal/utils"
	"github.com/menta2k/patch-extractor/pkg/types"
)

// ScanError reports a missing or unreadable source root or subtree.
// It is job-fatal: no pair list can be built.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("scan %s: not a readable directory", e.Path)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Scanner enumerates the images and masks subtrees of a source root and
// pairs files by stem. Files present in only one subtree become warnings.
type Scanner struct {
	ImagesDir  string
	MasksDir   string
	Extensions []string
}

// New creates a scanner for sourceRoot with the given subtree names and
// recognized raster extensions.
func New(sourceRoot, imagesSubdir, masksSubdir string, extensions []string) *Scanner {
	return &Scanner{
		ImagesDir:  filepath.Join(sourceRoot, imagesSubdir),
		MasksDir:   filepath.Join(sourceRoot, masksSubdir),
		Extensions: extensions,
	}
}

// entry is one discovered raster file keyed by its relative stem path.
type entry struct {
	path   string
	relDir string
	stem   string
}

// Scan returns the pair list sorted by stem path plus warnings for
// unmatched files. It fails with ScanError only when a subtree is missing
// or unreadable.
func (s *Scanner) Scan() ([]types.DatasetPair, []string, error) {
	if !utils.DirExists(s.ImagesDir) {
		return nil, nil, &ScanError{Path: s.ImagesDir}
	}
	if !utils.DirExists(s.MasksDir) {
		return nil, nil, &ScanError{Path: s.MasksDir}
	}

	images, err := s.index(s.ImagesDir)
	if err != nil {
		return nil, nil, &ScanError{Path: s.ImagesDir, Err: err}
	}
	masks, err := s.index(s.MasksDir)
	if err != nil {
		return nil, nil, &ScanError{Path: s.MasksDir, Err: err}
	}

	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []types.DatasetPair
	var warnings []string
	for _, k := range keys {
		img := images[k]
		msk, ok := masks[k]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no mask for image %q", k))
			continue
		}
		pairs = append(pairs, types.DatasetPair{
			Stem:      img.stem,
			ImagePath: img.path,
			MaskPath:  msk.path,
			RelDir:    img.relDir,
		})
	}

	maskKeys := make([]string, 0, len(masks))
	for k := range masks {
		maskKeys = append(maskKeys, k)
	}
	sort.Strings(maskKeys)
	for _, k := range maskKeys {
		if _, ok := images[k]; !ok {
			warnings = append(warnings, fmt.Sprintf("no image for mask %q", k))
		}
	}

	return pairs, warnings, nil
}

// index walks one subtree and maps relative stem paths to files.
func (s *Scanner) index(root string) (map[string]entry, error) {
	out := make(map[string]entry)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !utils.IsRasterFile(path, s.Extensions) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relDir := filepath.Dir(rel)
		if relDir == "." {
			relDir = ""
		}
		e := entry{path: path, relDir: relDir, stem: utils.Stem(path)}
		key := filepath.ToSlash(filepath.Join(relDir, e.stem))
		out[key] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
