package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-k", "-t", "-r", "-w", "-b", "-l", "-cookie-secure"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-m string          storage driver: postgres | memory
//	-d string          PostgreSQL DSN
//	-s string          access token secret
//	-k string          refresh token secret
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-w duration        store call timeout (e.g. "3s")
//	-b string          log backend: slog | zerolog
//	-l string          log level
//	-cookie-secure     Secure attribute on session cookies (use -cookie-secure=false to disable)
//
// Arguments are filtered first, so -c/-config and unknown flags are ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StorageDriver, "m", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "k", config.RefreshTokenSecret, "refresh token secret")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.DurationVar(&config.StoreTimeout, "w", config.StoreTimeout, "store call timeout")
	fs.StringVar(&config.LogBackend, "b", config.LogBackend, "log backend")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.CookieSecure, "cookie-secure", config.CookieSecure, "secure session cookies")

	if err := fs.Parse(filterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// only touch durations that were given, so minute truncation does not
	// clobber sub-minute values from JSON or env
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		}
	})
	return nil
}

// filterArgs keeps only the allowed flags and their values. Both "-f value"
// and "-f=value" forms are recognised; a following argument that starts with
// "-" is never taken as a value, so boolean flags can be passed bare.
func filterArgs(args []string, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		set[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := set[name]; keep {
				out = append(out, arg)
			}
			continue
		}

		if _, keep := set[arg]; !keep {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isBoolFlag(arg) {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

func isBoolFlag(name string) bool {
	return name == "-cookie-secure"
}
