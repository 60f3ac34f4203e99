package repository

import (
	"fmt"
	"strings"
)

// createHeaderMap creates a map of column names to their indices. Every
// required column must be present; optional columns are mapped when found.
func createHeaderMap(header []string, required []string, optional []string) (map[string]int, error) {
	columnMap := make(map[string]int)

	find := func(column string) bool {
		for i, field := range header {
			if strings.EqualFold(column, strings.TrimSpace(field)) {
				columnMap[column] = i
				return true
			}
		}
		return false
	}

	for _, column := range required {
		if !find(column) {
			return nil, fmt.Errorf("required field '%s' not found in CSV header", column)
		}
	}

	for _, column := range optional {
		find(column)
	}

	return columnMap, nil
}
