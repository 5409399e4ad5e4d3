package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadClassNames reads a class map file. Two layouts are accepted:
//
//	["apple", "banana"]
//	{"0": "apple", "1": "banana"}
//
// Object keys must be non-negative integers; names must be non-empty.
func LoadClassNames(path string) (map[int]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseClassNames(data)
}

// ParseClassNames decodes the class map formats accepted by LoadClassNames.
func ParseClassNames(data []byte) (map[int]string, error) {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) == 0 {
			return nil, errors.New("class map is empty")
		}
		out := make(map[int]string, len(arr))
		for i, name := range arr {
			if strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("class %d has an empty name", i)
			}
			out[i] = name
		}
		return out, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("class map must be a JSON array or object: %w", err)
	}
	if len(m) == 0 {
		return nil, errors.New("class map is empty")
	}

	out := make(map[int]string, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("invalid class index %q: %w", k, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("class index %d is negative", idx)
		}
		if _, dup := out[idx]; dup {
			return nil, fmt.Errorf("duplicate class index %d", idx)
		}
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("class %d has an empty name", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// LabelList converts a class map into a dense slice indexed by class id.
// Gaps are rejected because classifier outputs are positional.
func LabelList(names map[int]string) ([]string, error) {
	out := make([]string, len(names))
	for idx, name := range names {
		if idx >= len(names) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = name
	}
	return out, nil
}

// LoadGroups reads the group dictionary format {"fruit": ["apple", ...]}.
// JSON objects carry no order, so groups are returned sorted by name.
func LoadGroups(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Classes: m[name]})
	}
	return groups, nil
}
