package matrix

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"ternion/internal/model"
)

// Parse reads a square integer grid from one of the accepted source
// shapes: plain rows of whitespace- or comma-separated values, a JSON
// array of row arrays, or a JSON object keyed by row index. Non-numeric
// cells are coerced to zero and counted on the returned matrix; shape
// violations fail with ErrMalformedMatrix.
func Parse(r io.Reader) (model.Matrix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Matrix{}, fmt.Errorf("read matrix source: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory matrix source. See Parse.
func ParseBytes(data []byte) (model.Matrix, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.Matrix{}, fmt.Errorf("%w: empty input", ErrMalformedMatrix)
	}
	switch trimmed[0] {
	case '[', '{':
		return parseJSON(trimmed)
	default:
		return parseRows(trimmed)
	}
}

func parseRows(data []byte) (model.Matrix, error) {
	var cells [][]int
	substitutions := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.ReplaceAll(line, ",", " ")
		fields := strings.Fields(line)
		row := make([]int, len(fields))
		for i, field := range fields {
			v, ok := coerceToken(field)
			if !ok {
				substitutions++
			}
			row[i] = v
		}
		cells = append(cells, row)
	}
	if err := scanner.Err(); err != nil {
		return model.Matrix{}, fmt.Errorf("scan matrix source: %w", err)
	}

	return assemble(cells, substitutions)
}

func parseJSON(data []byte) (model.Matrix, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return model.Matrix{}, fmt.Errorf("%w: %v", ErrMalformedMatrix, err)
	}

	switch value := raw.(type) {
	case []any:
		return parseRowList(value)
	case map[string]any:
		return parseRowDict(value)
	default:
		return model.Matrix{}, fmt.Errorf("%w: top-level value is not a grid", ErrMalformedMatrix)
	}
}

func parseRowList(rows []any) (model.Matrix, error) {
	cells := make([][]int, 0, len(rows))
	substitutions := 0
	for i, raw := range rows {
		row, subs, err := coerceRow(i, raw)
		if err != nil {
			return model.Matrix{}, err
		}
		substitutions += subs
		cells = append(cells, row)
	}
	return assemble(cells, substitutions)
}

// parseRowDict normalizes the {"0": [...], "1": [...]} container shape.
// Keys must form a contiguous run of row indices starting at zero.
func parseRowDict(rows map[string]any) (model.Matrix, error) {
	indices := make([]int, 0, len(rows))
	byIndex := make(map[int]any, len(rows))
	for key, raw := range rows {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return model.Matrix{}, fmt.Errorf("%w: row key %q is not an index", ErrMalformedMatrix, key)
		}
		if _, dup := byIndex[idx]; dup {
			return model.Matrix{}, fmt.Errorf("%w: duplicate row index %d", ErrMalformedMatrix, idx)
		}
		byIndex[idx] = raw
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			return model.Matrix{}, fmt.Errorf("%w: missing row index %d", ErrMalformedMatrix, i)
		}
	}

	cells := make([][]int, 0, len(indices))
	substitutions := 0
	for _, idx := range indices {
		row, subs, err := coerceRow(idx, byIndex[idx])
		if err != nil {
			return model.Matrix{}, err
		}
		substitutions += subs
		cells = append(cells, row)
	}
	return assemble(cells, substitutions)
}

func coerceRow(index int, raw any) ([]int, int, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, 0, fmt.Errorf("%w: row %d is not a list", ErrMalformedMatrix, index)
	}
	row := make([]int, len(values))
	substitutions := 0
	for i, cell := range values {
		v, numeric := coerceCell(cell)
		if !numeric {
			substitutions++
		}
		row[i] = v
	}
	return row, substitutions, nil
}

func coerceCell(cell any) (int, bool) {
	switch value := cell.(type) {
	case json.Number:
		return coerceToken(value.String())
	case string:
		return coerceToken(value)
	default:
		return 0, false
	}
}

func coerceToken(token string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return 0, false
	}
	return v, true
}

func assemble(cells [][]int, substitutions int) (model.Matrix, error) {
	m := model.Matrix{
		N:             len(cells),
		Cells:         cells,
		Substitutions: substitutions,
	}
	if err := Validate(m); err != nil {
		return model.Matrix{}, err
	}
	return m, nil
}
