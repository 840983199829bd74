// Package config turns the raw `-n names` / `commands[]` CLI input into
// the ordered, name-deduplicated, decorator-resolved Config the rest of
// the application runs from. Argument parsing itself — flag handling and
// usage text — is the CLI layer's job; this package only knows how to
// turn already-split names and commands into a Config.
package config

import (
	"fmt"
	"strings"
)

// Decorators are behavior flags parsed from a name's trailing suffixes.
// They are stackable and order-independent: "build:w!" and "build!:w"
// both set both flags.
type Decorators struct {
	// Passthrough forwards Esc and Shift-Tab to the child instead of using
	// them to exit focus mode.
	Passthrough bool
	// Wrap enables line-wrapping in the output panel for this process.
	Wrap bool
}

// ProcessSpec is everything needed to spawn and manage one child.
type ProcessSpec struct {
	CommandLine  string
	Cwd          string
	EnvOverrides map[string]string
	AutoRestart  bool
}

// Entry is one named process in the fleet's startup configuration.
type Entry struct {
	// Name is the display form: decorators preserved, suffix-deduplicated.
	Name string
	// CleanName has all decorators and dedup suffixes removed, for log
	// correlation that shouldn't change if two processes happen to share
	// a base name.
	CleanName  string
	Decorators Decorators
	Spec       ProcessSpec
}

// Config is the ordered, fully-resolved set of processes to run.
type Config struct {
	Entries []Entry
}

// Build assembles a Config from parallel name/command slices. Names
// shorter than commands, or individually empty, fall back to the default
// "proc{i+1}"; duplicate display names receive a "-2", "-3", ... suffix.
func Build(names, commands []string) (Config, error) {
	if len(commands) == 0 {
		return Config{}, fmt.Errorf("config: no commands supplied")
	}

	seen := make(map[string]int, len(commands))
	used := make(map[string]bool, len(commands))
	entries := make([]Entry, 0, len(commands))
	for i, cmd := range commands {
		if strings.TrimSpace(cmd) == "" {
			return Config{}, fmt.Errorf("config: command %d is empty", i+1)
		}

		raw := ""
		if i < len(names) {
			raw = strings.TrimSpace(names[i])
		}
		if raw == "" {
			raw = fmt.Sprintf("proc%d", i+1)
		}

		base, suffix, dec := parseDecorators(raw)
		display := raw
		if n := bump(seen, raw); n > 1 {
			// Insert the dedup suffix before the decorator suffix so a
			// repeated decorated name (e.g. "-n x!,x!") keeps its
			// decorators trailing and therefore still recognized: "x!",
			// "x-2!", not "x!-2" (whose "!" is no longer trailing).
			display = fmt.Sprintf("%s-%d%s", base, n, suffix)
		}
		// A suffixed name can coincide with one given verbatim elsewhere
		// (e.g. "-n a-2,a,a"); keep counting until the display name is new.
		for used[display] {
			display = fmt.Sprintf("%s-%d%s", base, bump(seen, raw), suffix)
		}
		used[display] = true
		clean := base

		entries = append(entries, Entry{
			Name:       display,
			CleanName:  clean,
			Decorators: dec,
			Spec:       ProcessSpec{CommandLine: cmd},
		})
	}
	return Config{Entries: entries}, nil
}

// bump records one more sighting of name (the raw, pre-dedup form) and
// returns the sighting count, so distinctly-decorated names built from the
// same base (e.g. "fastfetch" and "fastfetch:w") never collide with each
// other, only with an exact repeat of themselves.
func bump(seen map[string]int, name string) int {
	seen[name]++
	return seen[name]
}

// parseDecorators strips any trailing "!" / ":w" suffixes (in any order,
// any number of times), reporting which were found along with the
// stripped suffix text in its original left-to-right order, so callers
// that need to rebuild a modified display name can reattach it verbatim.
func parseDecorators(name string) (clean, suffix string, dec Decorators) {
	clean = name
	for {
		switch {
		case strings.HasSuffix(clean, "!"):
			dec.Passthrough = true
			clean = strings.TrimSuffix(clean, "!")
			suffix = "!" + suffix
		case strings.HasSuffix(clean, ":w"):
			dec.Wrap = true
			clean = strings.TrimSuffix(clean, ":w")
			suffix = ":w" + suffix
		default:
			return clean, suffix, dec
		}
	}
}
