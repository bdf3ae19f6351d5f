package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nodify/pkg/errors"
)

// ConfigFile is the name of the optional per-project config file.
const ConfigFile = "nodify.toml"

// LoadConfig reads pipeline defaults from a TOML file. A missing file
// yields zero options and no error.
//
//	alignment = "TOP"
//	frame = true
//	formats = ["json", "svg"]
//	cache_ttl = "1h"
func LoadConfig(path string) (Options, error) {
	var opts Options

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	return opts, nil
}

// Merge fills every zero field of o from defaults. Runtime fields are
// taken from o only.
func (o Options) Merge(defaults Options) Options {
	if o.Tables == "" {
		o.Tables = defaults.Tables
	}
	o.Expression = o.Expression || defaults.Expression
	if o.Location == [2]float64{} {
		o.Location = defaults.Location
	}
	if o.Scale == [2]float64{} {
		o.Scale = defaults.Scale
	}
	if o.Alignment == "" {
		o.Alignment = defaults.Alignment
	}
	o.Frame = o.Frame || defaults.Frame
	if o.FrameTitle == "" {
		o.FrameTitle = defaults.FrameTitle
	}
	if len(o.Formats) == 0 {
		o.Formats = defaults.Formats
	}
	if o.Engine == "" {
		o.Engine = defaults.Engine
	}
	o.Detailed = o.Detailed || defaults.Detailed
	if o.CacheTTL == 0 {
		o.CacheTTL = defaults.CacheTTL
	}
	return o
}
