package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/cms/factory"
)

type target struct {
	platform cms.Platform
	adapter  cms.Adapter
}

// normalizeTargets parses --target values. It reports all=true when no value
// or "all" is given.
func normalizeTargets(values []string) (platforms []cms.Platform, all bool, err error) {
	seen := map[cms.Platform]bool{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		if raw == "all" {
			return nil, true, nil
		}
		p, err := cms.ParsePlatform(raw)
		if err != nil {
			return nil, false, fmt.Errorf("unsupported target %q", raw)
		}
		seen[p] = true
	}
	if len(seen) == 0 {
		return nil, true, nil
	}

	for _, p := range cms.Platforms {
		if seen[p] {
			platforms = append(platforms, p)
		}
	}
	return platforms, false, nil
}

func resolveTargets(values []string, cfg factory.Config) ([]target, error) {
	platforms, all, err := normalizeTargets(values)
	if err != nil {
		return nil, err
	}

	if all {
		var out []target
		for _, p := range cms.Platforms {
			a, err := factory.New(p, cfg)
			if err != nil {
				return nil, err
			}
			if a.IsConfigured() {
				out = append(out, target{platform: p, adapter: a})
			}
		}
		if len(out) == 0 {
			return nil, errors.New("no platforms configured: set " + factory.EnvPrefix + "* variables or pass --config")
		}
		return out, nil
	}

	out := make([]target, 0, len(platforms))
	var errs []error
	for _, p := range platforms {
		if err := factory.MissingConfig(p, cfg); err != nil {
			errs = append(errs, err)
			continue
		}
		a, err := factory.New(p, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, target{platform: p, adapter: a})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
