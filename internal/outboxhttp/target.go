package outboxhttp

import "strings"

// devDefaultTarget is the process-local fallback used when nothing
// else resolves a target — development convenience only.
const devDefaultTarget = "http://localhost:8080/events"

// TargetConfig carries the configured pieces of the URL resolution
// precedence (spec.md §4.5): an absolute URL, or a path to combine
// with a host.
type TargetConfig struct {
	AbsoluteURL string
	Host        string
	Path        string
}

// ResolveTargetURL is a pure function of configuration and the
// caller's explicit override: override wins, then a configured
// absolute URL, then host+path, then the development default.
func ResolveTargetURL(override string, cfg TargetConfig) string {
	if override != "" {
		return override
	}
	if cfg.AbsoluteURL != "" {
		return cfg.AbsoluteURL
	}
	if cfg.Host != "" && cfg.Path != "" {
		host := strings.TrimSuffix(cfg.Host, "/")
		path := cfg.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return host + path
	}
	return devDefaultTarget
}
