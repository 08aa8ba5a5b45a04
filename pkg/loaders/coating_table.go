// Package loaders reads optical data tables from text files.
package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-optics/pkg/coating"
)

// MicronsToMetres scales wavelengths tabulated in microns
const MicronsToMetres = 1e-6

// ParseCoatingTable parses a three column table of wavelength,
// reflectivity and transmissivity. Blank lines and lines starting with #
// are ignored. Wavelengths are multiplied by scale.
func ParseCoatingTable(reader io.Reader, scale float64) (*coating.TableCoating, error) {
	var w, r, t []float64

	scanner := bufio.NewScanner(reader)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", lineNum, len(fields))
		}
		var values [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q: %v", lineNum, field, err)
			}
			values[i] = v
		}

		w = append(w, values[0]*scale)
		r = append(r, values[1])
		t = append(t, values[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coating table: %v", err)
	}
	if len(w) < 2 {
		return nil, fmt.Errorf("coating table needs at least 2 rows, got %d", len(w))
	}

	return coating.NewTableCoating(w, r, t), nil
}

// LoadCoatingTable loads a coating table from a file
func LoadCoatingTable(filename string, scale float64) (*coating.TableCoating, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open coating table: %w", err)
	}
	defer file.Close()

	table, err := ParseCoatingTable(file, scale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return table, nil
}

// FindCoatingTable loads filename directly when it exists, and otherwise
// searches dataDir recursively for a .txt file with the same base name.
func FindCoatingTable(dataDir, filename string, scale float64) (*coating.TableCoating, error) {
	if _, err := os.Stat(filename); err == nil {
		return LoadCoatingTable(filename, scale)
	}
	if err := validateFilePath(dataDir); err != nil {
		return nil, err
	}

	base := filepath.Base(filename)
	var found string
	errFound := errors.New("found")
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".txt" && d.Name() == base {
			found = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return nil, fmt.Errorf("searching %s: %w", dataDir, err)
	}
	if found == "" {
		return nil, fmt.Errorf("coating table %s: %w", filename, fs.ErrNotExist)
	}
	return LoadCoatingTable(found, scale)
}

// validateFilePath rejects empty paths and directory traversal
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(filename), "/") {
		if part == ".." {
			return fmt.Errorf("invalid file path %q: directory traversal not allowed", filename)
		}
	}
	return nil
}
