package config_test

import (
	"testing"

	"glint/internal/config"
)

func TestDecodeInitializationOptions(t *testing.T) {
	raw := map[string]interface{}{
		"interpreter": map[string]interface{}{
			"assembly": "builtin-python",
			"typeName": "python",
			"version":  "3.11",
		},
		"searchPaths": []interface{}{"/a", "/b"},
	}

	opts, err := config.DecodeInitializationOptions(raw)
	if err != nil {
		t.Fatalf("DecodeInitializationOptions: %v", err)
	}
	if opts.Interpreter.Assembly != "builtin-python" {
		t.Fatalf("expected assembly %q, got %q", "builtin-python", opts.Interpreter.Assembly)
	}
	if len(opts.SearchPaths) != 2 {
		t.Fatalf("expected 2 search paths, got %d", len(opts.SearchPaths))
	}
}

func TestDecodeInitializationOptionsMissingRequired(t *testing.T) {
	raw := map[string]interface{}{
		"interpreter": map[string]interface{}{
			"typeName": "python",
		},
	}
	if _, err := config.DecodeInitializationOptions(raw); err == nil {
		t.Fatal("expected an error for a missing required interpreter.assembly")
	}
}

func TestDecodeClientCapabilityFlags(t *testing.T) {
	raw := map[string]interface{}{
		"python.liveLinting":        true,
		"python.completionsTimeout": -1,
	}
	flags, err := config.DecodeClientCapabilityFlags(raw)
	if err != nil {
		t.Fatalf("DecodeClientCapabilityFlags: %v", err)
	}
	if !flags.LiveLinting {
		t.Fatal("expected LiveLinting to be true")
	}
	if flags.CompletionsTimeout != -1 {
		t.Fatalf("expected CompletionsTimeout -1, got %d", flags.CompletionsTimeout)
	}
}
