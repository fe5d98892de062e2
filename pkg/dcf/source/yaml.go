package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// YAMLSource loads holdings from a YAML file or a directory of them.
//
// Accepted shapes:
//
//	- {sym: AAPL, shares: 20}
//
//	holdings:
//	  - {sym: AAPL, shares: 20}
//	  - name: tech           # groups nest and are flattened in order
//	    holdings:
//	      - {sym: MSFT, shares: 15}
//
// "ticker" is accepted as an alias for "sym".
type YAMLSource struct{}

// Load expects spec to be a file or directory path.
func (YAMLSource) Load(ctx context.Context, path string) ([]types.Holding, error) { //nolint:revive // ctx reserved for future use
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		data, err := readAll(path)
		if err != nil {
			return nil, err
		}
		hs, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return hs, nil
	}

	// Combine every YAML file below the directory in lexical path order.
	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Holding
	for _, full := range files {
		data, err := readAll(full)
		if err != nil {
			return nil, err
		}
		hs, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", full, err)
		}
		all = append(all, hs...)
	}
	if err := Validate(all); err != nil {
		return nil, err
	}
	return all, nil
}

func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ParseYAML decodes holdings from YAML bytes.
func ParseYAML(data []byte) ([]types.Holding, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
	}
	root = norm(root)

	var node any
	switch r := root.(type) {
	case []any:
		node = r
	case map[string]any:
		n, ok := r["holdings"]
		if !ok || n == nil {
			return nil, fmt.Errorf("%w: missing 'holdings'", apperrors.ErrMalformedInput)
		}
		node = n
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: expected a list or a map with 'holdings'", apperrors.ErrMalformedInput)
	}

	var out []types.Holding
	var walk func(n any) error
	walk = func(n any) error {
		switch v := n.(type) {
		case []any:
			for _, e := range v {
				if err := walk(e); err != nil {
					return err
				}
			}
		case map[string]any:
			if child, ok := v["holdings"]; ok {
				return walk(child)
			}
			h, err := toHolding(v, len(out)+1)
			if err != nil {
				return err
			}
			out = append(out, h)
		default:
			return fmt.Errorf("%w: row %d: expected a mapping, got %v", apperrors.ErrMalformedInput, len(out)+1, v)
		}
		return nil
	}
	if err := walk(node); err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// norm converts maps with non-string keys to map[string]any.
func norm(v any) any {
	switch m := v.(type) {
	case map[any]any:
		mm := make(map[string]any, len(m))
		for k, val := range m {
			mm[fmt.Sprint(k)] = norm(val)
		}
		return mm
	case map[string]any:
		for k, val := range m {
			m[k] = norm(val)
		}
		return m
	case []any:
		out := make([]any, 0, len(m))
		for _, e := range m {
			out = append(out, norm(e))
		}
		return out
	default:
		return v
	}
}

func toHolding(m map[string]any, row int) (types.Holding, error) {
	var h types.Holding
	sym, ok := m["sym"]
	if !ok {
		sym = m["ticker"]
	}
	if sym != nil {
		h.Identifier = strings.TrimSpace(fmt.Sprint(sym))
	}
	switch s := m["shares"].(type) {
	case int:
		h.Shares = float64(s)
	case int64:
		h.Shares = float64(s)
	case float64:
		h.Shares = s
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return h, fmt.Errorf("%w: row %d: shares %q is not a number", apperrors.ErrMalformedInput, row, s)
		}
		h.Shares = f
	case nil:
		return h, fmt.Errorf("%w: row %d (%s): missing shares", apperrors.ErrMalformedInput, row, h.Identifier)
	default:
		return h, fmt.Errorf("%w: row %d: shares %v is not a number", apperrors.ErrMalformedInput, row, s)
	}
	return h, nil
}
