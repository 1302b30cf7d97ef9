// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules is the registry of built-in lint rules.
package rules

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/jsxlint/services/lint/engine"
	"github.com/AleutianAI/jsxlint/services/lint/rules/arraykey"
)

// All returns every built-in rule, sorted by name.
func All() []engine.Rule {
	all := []engine.Rule{
		arraykey.New(),
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (engine.Rule, bool) {
	for _, r := range All() {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// Severities converts configuration values into engine severities.
//
// Description:
//
//	Keys must name built-in rules and values must parse with
//	engine.ParseSeverity. Rules absent from the map keep the engine default.
//
// Outputs:
//   - map[string]engine.Severity: Parsed severities.
//   - error: Unknown rule name or invalid severity.
func Severities(configured map[string]string) (map[string]engine.Severity, error) {
	out := make(map[string]engine.Severity, len(configured))
	for name, value := range configured {
		if _, ok := Lookup(name); !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		sev, err := engine.ParseSeverity(value)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		out[name] = sev
	}
	return out, nil
}
