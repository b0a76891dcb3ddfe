package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/scanvault/internal/flagx"
	"github.com/dmitrijs2005/scanvault/internal/timex"
)

// parseFlags overlays command-line flags:
//
//	-a string        HTTP bind address (":8080")
//	-driver string   database driver: postgres | sqlite
//	-d string        database DSN
//	-s string        JWT signing secret
//	-t duration      token validity ("168h", "7d")
//	-storage string  storage backend: local | s3 | supabase
//	-storage-dir     local storage directory
//	-public-url      public base URL used to build file URLs
//	-cors string     comma separated allowed origins
//	-max-upload int  upload limit in bytes
//	-log-level       debug | info | warn | error
//
// Only these flags are parsed, so -c and -env-file never cause errors here.
func parseFlags(config *Config, args []string) error {
	names := []string{"a", "driver", "d", "s", "t", "storage", "storage-dir", "public-url", "cors", "max-upload", "log-level"}
	allowed := make([]string, 0, len(names)*2)
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.Func("t", "token validity", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		config.TokenValidity = d
		return nil
	})
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend")
	fs.StringVar(&config.LocalStorageDir, "storage-dir", config.LocalStorageDir, "local storage directory")
	fs.StringVar(&config.PublicBaseURL, "public-url", config.PublicBaseURL, "public base URL")
	fs.Func("cors", "allowed CORS origins", func(v string) error {
		config.CORSOrigins = splitList(v)
		return nil
	})
	fs.Int64Var(&config.MaxUploadSize, "max-upload", config.MaxUploadSize, "max upload size in bytes")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, allowed)); err != nil {
		return err
	}

	config.PublicBaseURL = strings.TrimRight(config.PublicBaseURL, "/")
	return nil
}
