package config

import (
	"time"

	"github.com/m-mizutani/refasm/pkg/domain/interfaces"
	"github.com/m-mizutani/refasm/pkg/infra/nuget"
	"github.com/urfave/cli/v3"
)

// NuGet holds package registry configuration
type NuGet struct {
	FeedURL string
	Token   string
	Timeout time.Duration
}

// Flags returns CLI flags for NuGet configuration
func (c *NuGet) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "feed-url",
			Usage:       "NuGet package download endpoint",
			Value:       nuget.DefaultFeedURL,
			Destination: &c.FeedURL,
			Sources:     cli.EnvVars("REFASM_FEED_URL"),
		},
		&cli.StringFlag{
			Name:        "feed-token",
			Usage:       "Bearer token for private feeds",
			Destination: &c.Token,
			Sources:     cli.EnvVars("REFASM_FEED_TOKEN"),
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "HTTP request timeout (0 means no timeout)",
			Value:       0,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("REFASM_HTTP_TIMEOUT"),
		},
	}
}

// ApplyFile copies values from the config file for flags that were not set
func (c *NuGet) ApplyFile(f *File, isSet func(name string) bool) {
	if f.FeedURL != "" && !isSet("feed-url") {
		c.FeedURL = f.FeedURL
	}
}

// Configure creates the NuGet registry client
func (c *NuGet) Configure() interfaces.PackageRegistry {
	return nuget.NewClient(
		nuget.WithFeedURL(c.FeedURL),
		nuget.WithToken(c.Token),
		nuget.WithTimeout(c.Timeout),
	)
}
