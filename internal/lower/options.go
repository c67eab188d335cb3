package lower

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"rill/internal/trace"
)

// Options configures one lowering session.
type Options struct {
	// ModuleName names the output module.
	ModuleName string `toml:"module_name"`
	// TargetTriple is stamped into the printed module.
	TargetTriple string `toml:"target_triple"`
	// LambdaPrefix prefixes generated lambda function names.
	LambdaPrefix string `toml:"lambda_prefix"`
	// TernPrefix prefixes generated conditional function names.
	TernPrefix string `toml:"tern_prefix"`
	// TraceLevel is one of "off", "phase", "detail".
	TraceLevel string `toml:"trace_level"`

	// TraceWriter receives trace events when TraceLevel is not "off".
	// Not settable from TOML.
	TraceWriter io.Writer `toml:"-"`
}

// DefaultOptions returns the options used when a field is left unset.
func DefaultOptions() Options {
	return Options{
		ModuleName:   "rill",
		TargetTriple: "x86_64-linux-gnu",
		LambdaPrefix: "__lambda_",
		TernPrefix:   "__tern_",
		TraceLevel:   "off",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ModuleName == "" {
		o.ModuleName = d.ModuleName
	}
	if o.TargetTriple == "" {
		o.TargetTriple = d.TargetTriple
	}
	if o.LambdaPrefix == "" {
		o.LambdaPrefix = d.LambdaPrefix
	}
	if o.TernPrefix == "" {
		o.TernPrefix = d.TernPrefix
	}
	return o
}

func (o Options) tracer() trace.Tracer {
	level, ok := trace.ParseLevel(o.TraceLevel)
	if !ok || level == trace.LevelOff || o.TraceWriter == nil {
		return trace.Nop
	}
	return trace.NewWriterTracer(o.TraceWriter, level)
}

// LoadOptions reads options from a TOML file, filling unset fields with
// defaults.
func LoadOptions(path string) (Options, error) {
	var o Options
	meta, err := toml.DecodeFile(path, &o)
	if err != nil {
		return Options{}, fmt.Errorf("lower: load options %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Options{}, fmt.Errorf("lower: load options %s: unknown key %s", path, undec[0])
	}
	if o.TraceLevel != "" {
		if _, ok := trace.ParseLevel(o.TraceLevel); !ok {
			return Options{}, fmt.Errorf("lower: load options %s: invalid trace_level %q", path, o.TraceLevel)
		}
	}
	return o.withDefaults(), nil
}
