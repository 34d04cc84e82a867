// Package config decodes and validates the two untyped payloads the LSP
// client sends at startup: initialize's InitializationOptions and the
// capability flags glint reads out of it. The teacher's sibling zeta
// server tags its Config fields `required:"true"` (internal/lsp/config.go)
// but never wires a validator to them; glint decodes the same shape with
// github.com/go-viper/mapstructure/v2 and actually enforces the tags
// with github.com/go-playground/validator/v10.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// InitializationOptions is glint's typed view of initialize's
// InitializationOptions, per spec.md §6.
type InitializationOptions struct {
	Interpreter InterpreterOptions `mapstructure:"interpreter"`
	SearchPaths []string           `mapstructure:"searchPaths"`
}

// InterpreterOptions names the interpreter/runtime factory to construct,
// per design note 9's registry-plus-plugin contract.
type InterpreterOptions struct {
	// Assembly is either a registered interpreterfactory identifier, or
	// a filesystem path to a Go plugin (.so) implementing one, resolved
	// by internal/interpreterfactory.
	Assembly string `mapstructure:"assembly" validate:"required"`
	// TypeName additionally selects the tree-sitter grammar this
	// interpreter parses, via internal/syntax/grammar's registry.
	TypeName   string                 `mapstructure:"typeName" validate:"required"`
	Properties map[string]interface{} `mapstructure:"properties"`
	Version    string                 `mapstructure:"version"`
}

// ClientCapabilityFlags is glint's typed view of the client capability
// flags spec.md §6 names.
type ClientCapabilityFlags struct {
	TraceLogging       bool `mapstructure:"python.traceLogging"`
	LiveLinting        bool `mapstructure:"python.liveLinting"`
	ManualFileLoad     bool `mapstructure:"python.manualFileLoad"`
	CompletionsTimeout int  `mapstructure:"python.completionsTimeout"`
	AnalysisUpdates    bool `mapstructure:"python.analysisUpdates"`
}

var validate = validator.New()

// DecodeInitializationOptions decodes raw (the interface{} glsp hands
// back from InitializeParams.InitializationOptions) into an
// InitializationOptions and validates its required fields.
func DecodeInitializationOptions(raw interface{}) (InitializationOptions, error) {
	var opts InitializationOptions
	if raw == nil {
		return opts, fmt.Errorf("config: initializationOptions missing")
	}
	if err := mapstructure.Decode(raw, &opts); err != nil {
		return opts, fmt.Errorf("config: decode initializationOptions: %w", err)
	}
	if err := validate.Struct(opts.Interpreter); err != nil {
		return opts, fmt.Errorf("config: invalid interpreter options: %w", err)
	}
	return opts, nil
}

// DecodeClientCapabilityFlags decodes raw the same way, but every field
// is optional - a client that omits python.completionsTimeout simply
// gets glint's zero-value default of 0, which RequestResolver treats as
// "no wait"; an explicit negative value means "wait indefinitely" (see
// DESIGN.md).
func DecodeClientCapabilityFlags(raw interface{}) (ClientCapabilityFlags, error) {
	var flags ClientCapabilityFlags
	if raw == nil {
		return flags, nil
	}
	if err := mapstructure.Decode(raw, &flags); err != nil {
		return flags, fmt.Errorf("config: decode capability flags: %w", err)
	}
	return flags, nil
}
