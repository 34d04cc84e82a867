// Package interpreterfactory is glint's registry for interpreter/runtime
// factories (spec.md design note 9): "Reflection-based interpreter
// factory loading (assembly + type name) is a plugin contract; in a
// systems-language port, replace with a registry keyed by identifier
// plus a dynamic-library loading path for out-of-tree providers." That
// is exactly this package: Register/Construct cover in-tree providers,
// LoadPlugin covers everything else via the standard library's
// plugin.Open.
package interpreterfactory

import (
	"fmt"
	"plugin"
	"sync"

	"glint/internal/corelsp/contract"
)

// Constructor builds a contract.Analyzer for one interpreter.assembly
// identifier, given the decoded interpreter.properties bag and version.
type Constructor func(properties map[string]interface{}, version string) (contract.Analyzer, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Constructor)
)

// Register adds or replaces the constructor for id. In-tree interpreter
// packages call it (analysis.RegisterBuiltin, run while the server builds
// its core), the way internal/syntax/grammar's Register works for
// grammars.
func Register(id string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[id] = ctor
}

// Construct builds the analyzer named by assembly. If assembly is not a
// registered identifier, it is treated as a filesystem path to a Go
// plugin exporting a `NewAnalyzer` symbol of type Constructor, loaded
// with LoadPlugin first.
func Construct(assembly string, properties map[string]interface{}, version string) (contract.Analyzer, error) {
	mu.RLock()
	ctor, ok := registry[assembly]
	mu.RUnlock()
	if ok {
		return ctor(properties, version)
	}

	ctor, err := LoadPlugin(assembly)
	if err != nil {
		return nil, fmt.Errorf("interpreterfactory: %q is neither a registered interpreter nor a loadable plugin: %w", assembly, err)
	}
	return ctor(properties, version)
}

// LoadPlugin opens the .so at path and resolves its NewAnalyzer symbol,
// registering it under path so a later Construct call for the same path
// reuses the loaded constructor instead of reopening the plugin.
func LoadPlugin(path string) (Constructor, error) {
	mu.RLock()
	if ctor, ok := registry[path]; ok {
		mu.RUnlock()
		return ctor, nil
	}
	mu.RUnlock()

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("interpreterfactory: open plugin %q: %w", path, err)
	}
	sym, err := p.Lookup("NewAnalyzer")
	if err != nil {
		return nil, fmt.Errorf("interpreterfactory: plugin %q missing NewAnalyzer: %w", path, err)
	}
	ctor, ok := sym.(func(map[string]interface{}, string) (contract.Analyzer, error))
	if !ok {
		return nil, fmt.Errorf("interpreterfactory: plugin %q NewAnalyzer has the wrong signature", path)
	}

	Register(path, ctor)
	return ctor, nil
}
