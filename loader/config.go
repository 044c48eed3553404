package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// BaseConfig maps remote schema URLs to a local directory, so payloads that
// advertise published schema URLs can be processed offline.
//
// When both fields are set, a URL beginning with RemoteBase is rewritten by
// stripping the prefix and appending the remainder to LocalBase. With only
// LocalBase set, the URL's path is appended to LocalBase.
type BaseConfig struct {
	// LocalBase is the local directory containing schema files.
	LocalBase string
	// RemoteBase is the URL prefix to strip when mapping to LocalBase.
	RemoteBase string
}

// RegisterFlags adds the schema base flags to the given [*pflag.FlagSet].
func (c *BaseConfig) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.LocalBase, "schema-local-base", "",
		"local directory containing schema files")
	flags.StringVar(&c.RemoteBase, "schema-remote-base", "",
		"URL prefix to strip when mapping schema URLs to --schema-local-base")
}

// Map rewrites a remote schema URL to a local path. The second return is
// false when no mapping applies.
func (c *BaseConfig) Map(url string) (string, bool) {
	if c.LocalBase == "" || !IsURL(url) {
		return "", false
	}

	rest := url

	if c.RemoteBase != "" {
		if !strings.HasPrefix(url, c.RemoteBase) {
			return "", false
		}

		rest = strings.TrimPrefix(url, c.RemoteBase)
	} else {
		// No remote prefix configured: use the URL path.
		rest = url[strings.Index(url, "://")+3:]
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
	}

	return filepath.Join(c.LocalBase, filepath.FromSlash(strings.TrimPrefix(rest, "/"))), true
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from CLI arguments.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	return data, nil
}
