package core

import (
	"os"
	"path/filepath"
	"strings"

	"glint/internal/corelsp/loader"
)

// packagingRules is the loader.PackagingRules glint's directory scan uses:
// a directory counts as part of the workspace only if it carries initFile
// (mirroring Python's __init__.py package marker), and any file ending in
// ext is a source file, all of it analyzable.
type packagingRules struct {
	ext      string
	initFile string
}

// NewPackagingRules builds a loader.PackagingRules for one grammar's
// file extension. An empty initFile disables the init-file requirement
// entirely, so every directory is walked.
func NewPackagingRules(ext, initFile string) loader.PackagingRules {
	return packagingRules{ext: ext, initFile: initFile}
}

func (r packagingRules) RequiresInitFile() bool { return r.initFile != "" }

func (r packagingRules) HasInitFile(dir string) bool {
	if r.initFile == "" {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, r.initFile))
	return err == nil
}

func (r packagingRules) IsSourceFile(name string) bool {
	return strings.HasSuffix(name, r.ext)
}

func (r packagingRules) Analyzable(name string) bool {
	return r.IsSourceFile(name)
}
