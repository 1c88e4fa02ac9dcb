package config

import (
	"bytes"
	"errors"
)

// Parse reads JSONC configuration content on top of base.
//
// Content that is empty after comment stripping yields base unchanged.
func Parse(content string, base Config) (Config, []Warning, error) {
	plain, err := blankJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	trimmed := bytes.TrimSpace(plain)
	if len(trimmed) == 0 {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}
	if trimmed[0] != '{' {
		return Config{}, nil, errors.New("config must be a JSONC object")
	}
	return parseJSONC(content, base)
}
