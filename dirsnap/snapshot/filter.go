package snapshot

import (
	"fmt"
	"os"
	"regexp"

	ignore "github.com/sabhiram/go-gitignore"
)

// Filter decides whether a path is recorded during collection or considered
// during a diff. It returns true to include the path.
type Filter func(path string) bool

// FilterFromPatterns builds a Filter that excludes any path matching one of
// the given regular expressions.
func FilterFromPatterns(patterns []string) (Filter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}

	return func(path string) bool {
		for _, re := range compiled {
			if re.MatchString(path) {
				return false
			}
		}
		return true
	}, nil
}

// FilterFromIgnoreFile builds a Filter from a gitignore-style file. A missing
// file yields a nil Filter, meaning everything is included.
func FilterFromIgnoreFile(path string) (Filter, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error checking for ignore file %s: %w", path, err)
	}

	ignored, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading ignore file %s: %w", path, err)
	}

	return func(path string) bool {
		return !ignored.MatchesPath(path)
	}, nil
}
