package dataset

import (
	"fmt"
	"regexp"
	"strconv"
)

// Options is the unpacked (kind, min, max, decimals) tuple stored on a
// definition. Only Uniform and LogUniform are valid base kinds; the other
// distributions reuse the same min/max/decimals during selection.
type Options struct {
	Kind     DistributionKind
	Min      float64
	Max      float64
	Decimals int
}

// DefaultOptions is the packed options string a fresh definition starts
// with.
const DefaultOptions = "uniform:1.0:10.0:1"

// optionsRe is the exact shape a packed options string must have. Anything
// else is a data-integrity fault, not a soft failure.
var optionsRe = regexp.MustCompile(`^(uniform|loguniform):([^:]*):([^:]*):([0-9]*)$`)

// OptionsError reports a packed options string that cannot be decoded.
type OptionsError struct {
	Options string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("unsupported distribution options %q", e.Options)
}

// ParseOptions decodes a packed "kind:min:max:decimals" string.
func ParseOptions(s string) (Options, error) {
	m := optionsRe.FindStringSubmatch(s)
	if m == nil {
		return Options{}, &OptionsError{Options: s}
	}
	kind := Uniform
	if m[1] == "loguniform" {
		kind = LogUniform
	}
	min, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Options{}, &OptionsError{Options: s}
	}
	max, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Options{}, &OptionsError{Options: s}
	}
	dec := 0
	if m[4] != "" {
		if dec, err = strconv.Atoi(m[4]); err != nil {
			return Options{}, &OptionsError{Options: s}
		}
	}
	return Options{Kind: kind, Min: min, Max: max, Decimals: dec}, nil
}

// Pack encodes the tuple back into the persisted string form.
func (o Options) Pack() string {
	kind := "uniform"
	if o.Kind == LogUniform {
		kind = "loguniform"
	}
	return fmt.Sprintf("%s:%s:%s:%d", kind,
		strconv.FormatFloat(o.Min, 'g', -1, 64),
		strconv.FormatFloat(o.Max, 'g', -1, 64),
		o.Decimals)
}
