package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/scanvault/internal/flagx"
	"github.com/dmitrijs2005/scanvault/internal/timex"
)

// parseFlags overlays -a and -timeout. Other flags in args are ignored.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "--a", "-timeout", "--timeout"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.Func("timeout", "request timeout", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})

	return fs.Parse(filtered)
}
