package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Source selects where reference assemblies are fetched from
type Source string

const (
	SourceLocal       Source = "local"
	SourceArtifactory Source = "artifactory"
	SourceNuGet       Source = "nuget"
)

// AllSources returns every known source in display order
func AllSources() []Source {
	return []Source{SourceLocal, SourceArtifactory, SourceNuGet}
}

// ParseSource converts a CLI value into a Source. An empty string is
// reported as ErrNoSource, anything unknown as ErrInvalidSource.
func ParseSource(s string) (Source, error) {
	if s == "" {
		return "", ErrNoSource
	}

	for _, src := range AllSources() {
		if string(src) == s {
			return src, nil
		}
	}

	return "", goerr.Wrap(ErrInvalidSource, "unknown source",
		goerr.V("source", s),
		goerr.V("choices", SourceChoices()),
	)
}

// SourceChoices returns the accepted source names joined for help text
func SourceChoices() string {
	names := make([]string, 0, len(AllSources()))
	for _, src := range AllSources() {
		names = append(names, string(src))
	}
	return strings.Join(names, "|")
}

func (s Source) String() string {
	return string(s)
}
