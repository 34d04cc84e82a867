// Package grammar is a small registry of tree-sitter grammars, so
// internal/syntax never hard-codes a single language binding (the
// teacher's IncrementalParser imports its one grammar binding directly;
// here interpreter.typeName picks the grammar at runtime).
package grammar

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Factory builds a fresh *sitter.Language for one grammar.
type Factory func() *sitter.Language

var registry = map[string]Factory{
	"python": python.GetLanguage,
}

// extensions maps a registered grammar name to the file extension
// DirectoryLoader's packaging rules use to recognize its source files.
var extensions = map[string]string{
	"python": ".py",
}

// Register adds or replaces the factory for name, letting
// internal/interpreterfactory plug in an out-of-tree grammar for a
// custom interpreter.typeName. ext is the source file extension (with
// leading dot) DirectoryLoader should recognize for this grammar.
func Register(name string, factory Factory, ext string) {
	registry[name] = factory
	extensions[name] = ext
}

// Get returns the grammar registered for name.
func Get(name string) (*sitter.Language, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no grammar registered for %q", name)
	}
	return factory(), nil
}

// Extension returns the source file extension registered for name, or
// "" if name is unknown.
func Extension(name string) string {
	return extensions[name]
}
