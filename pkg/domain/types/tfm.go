package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TFM is a .NET Framework target framework moniker such as "net40"
type TFM string

const tfmPrefix = "net"

// DefaultTFMs is the set of frameworks installed when none is configured
var DefaultTFMs = []TFM{"net40"}

// KnownTFMs lists the .NET Framework monikers that have reference assembly packages
var KnownTFMs = []TFM{
	"net20", "net35", "net40",
	"net45", "net451", "net452",
	"net46", "net461", "net462",
	"net47", "net471", "net472",
	"net48", "net481",
}

// Version returns the directory name used for the framework under
// .NETFramework: every character after "net" joined with dots and
// prefixed by "v" (net40 -> v4.0, net481 -> v4.8.1).
func (x TFM) Version() string {
	s := string(x)
	if len(s) <= len(tfmPrefix) {
		return "v"
	}
	return "v" + strings.Join(strings.Split(s[len(tfmPrefix):], ""), ".")
}

// Validate checks that the moniker is "net" followed by at least one digit
func (x TFM) Validate() error {
	s := string(x)
	if !strings.HasPrefix(s, tfmPrefix) || len(s) == len(tfmPrefix) {
		return goerr.Wrap(ErrInvalidTFM, "moniker must be 'net' followed by digits", goerr.V("tfm", s))
	}

	for _, c := range s[len(tfmPrefix):] {
		if c < '0' || c > '9' {
			return goerr.Wrap(ErrInvalidTFM, "moniker must be 'net' followed by digits", goerr.V("tfm", s))
		}
	}

	return nil
}

// IsKnown reports whether the moniker is in KnownTFMs
func (x TFM) IsKnown() bool {
	for _, k := range KnownTFMs {
		if k == x {
			return true
		}
	}
	return false
}

func (x TFM) String() string {
	return string(x)
}
