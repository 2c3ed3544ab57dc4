// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still worth a
// "did you mean" hint.
const maxSuggestDistance = 3

// closest returns the candidate nearest to input within
// maxSuggestDistance, preferring earlier candidates on ties, or "".
func closest(input string, candidates []string) string {
	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if distance := levenshtein(input, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return closest(unknown, names)
}

// suggestFlag returns "--name" for the defined flag closest to the
// first unknown flag in args, or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	if flagSet == nil {
		return ""
	}
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil || (len(name) == 1 && flagSet.ShorthandLookup(name) != nil) {
			continue
		}

		var names []string
		flagSet.VisitAll(func(f *pflag.Flag) { names = append(names, f.Name) })
		if match := closest(name, names); match != "" {
			return "--" + match
		}
		return ""
	}
	return ""
}

// levenshtein is the edit distance between a and b, counted in bytes.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	// Two rows of the distance matrix, indexed by position in b.
	row := make([]int, len(b)+1)
	next := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := range len(a) {
		next[0] = i + 1
		for j := range len(b) {
			substitution := row[j]
			if a[i] != b[j] {
				substitution++
			}
			next[j+1] = min(row[j+1]+1, next[j]+1, substitution)
		}
		row, next = next, row
	}
	return row[len(b)]
}
