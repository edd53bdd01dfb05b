// ABOUTME: Root command and persistent flags for parsectl
// ABOUTME: Builds a linkparse client from the cache, timeout and allow-list flags

package main

import (
	"time"

	"github.com/spf13/cobra"

	"linkparse-api/linkparse"
)

const appName = "parsectl"

// rootFlags are shared by every subcommand
type rootFlags struct {
	timeout   time.Duration
	cacheType string
	cachePath string
	allowCIDR []string
	spa       []string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Parse links into readable content or a webview decision",
		Long:         `parsectl runs the same strategy registry, sanitizer and quality scorer as the API server, in process.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "overall time allowed per parse")
	pf.StringVar(&flags.cacheType, "cache", "memory", "cache backend: memory or sqlite")
	pf.StringVar(&flags.cachePath, "cache-path", "linkparse.db", "sqlite database file")
	pf.StringSliceVar(&flags.allowCIDR, "allow-cidr", nil, "private ranges the fetcher may reach")
	pf.StringSliceVar(&flags.spa, "spa-domain", nil, "extra hosts that always open in a webview")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log pipeline decisions to stderr")

	cmd.AddCommand(
		newParseCmd(flags),
		newNormalizeCmd(),
		newStrategiesCmd(flags),
	)
	return cmd
}

// client builds a linkparse client from the persistent flags
func (f *rootFlags) client() (*linkparse.Client, error) {
	opts := []linkparse.Option{
		linkparse.WithCacheOption(linkparse.CacheOption{
			Type:     linkparse.CacheType(f.cacheType),
			FilePath: f.cachePath,
		}),
	}
	if len(f.allowCIDR) > 0 {
		opts = append(opts, linkparse.WithAllowedCIDRs(f.allowCIDR...))
	}
	if len(f.spa) > 0 {
		opts = append(opts, linkparse.WithSPADomains(f.spa...))
	}
	if f.verbose {
		logger, err := linkparse.DefaultLogger("debug")
		if err != nil {
			return nil, err
		}
		opts = append(opts, linkparse.WithLogger(logger))
	}
	return linkparse.NewClient(opts...)
}
