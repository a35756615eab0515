// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package database

import (
	"fmt"
	"strings"
)

// Default and maximum page sizes for list queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// whereBuilder collects AND-ed conditions with Postgres positional parameters.
// Empty values are skipped, so optional filters can be added unconditionally:
//
//	var w whereBuilder
//	w.eq("status", filter.Status)
//	w.eq("priority", filter.Priority)
//	query := "SELECT ... FROM feedback" + w.clause()
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// eq adds "column = $N" when value is non-empty. column is never user input.
func (w *whereBuilder) eq(column, value string) {
	if value == "" {
		return
	}
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

// clause returns " WHERE ..." or "" when no condition was added.
func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT and OFFSET parameters and returns the SQL suffix.
func (w *whereBuilder) page(limit, offset int) string {
	limit, offset = normalizePage(limit, offset)
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

// normalizePage clamps limit to [1, MaxPageSize] (0 means default) and offset to >= 0.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// setBuilder collects "column = $N" assignments for partial updates.
type setBuilder struct {
	sets []string
	args []interface{}
}

// set adds an assignment when value is non-nil.
func (s *setBuilder) set(column string, value *string) {
	if value == nil {
		return
	}
	s.args = append(s.args, *value)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setBuilder) empty() bool {
	return len(s.sets) == 0
}

// build returns "UPDATE table SET ..., updated_at = $N WHERE id = $M" and its args.
func (s *setBuilder) build(table string, updatedAt interface{}, id string) (string, []interface{}) {
	args := append(append([]interface{}{}, s.args...), updatedAt, id)
	sets := append(append([]string{}, s.sets...), fmt.Sprintf("updated_at = $%d", len(args)-1))
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args)), args
}
