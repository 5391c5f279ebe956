// Package flagx helps several flag sets share one os.Args without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
	"time"
)

// FilterArgs returns the subset of args that belong to allowedFlags, keeping
// values that follow them.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// A token starting with '-' is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags extracts the config file path given with -c or -config.
// Other arguments are ignored. Empty when neither flag is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// MinutesVar binds an integer flag expressed in minutes to a duration.
// The returned func copies the parsed value into dst and must be called after
// fs.Parse.
func MinutesVar(fs *flag.FlagSet, dst *time.Duration, name, usage string) func() {
	v := fs.Int(name, int(dst.Minutes()), usage)
	return func() { *dst = time.Duration(*v) * time.Minute }
}
