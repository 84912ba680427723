// Package schema maps free-form column headers onto the canonical chart
// roles used downstream (datetime axis plus open/high/low/close series).
//
// Matching is deliberately dumb: lowercase the header, then run a fixed
// predicate list in order and take the first hit. Per header the first
// matching predicate wins; per role the leftmost matching header wins. The
// rules never rename or reorder columns, they only annotate them.
package schema

import (
	"strings"

	"tabload/internal/table"
)

// Role names a canonical chart slot a column can fill.
type Role string

const (
	RoleDateTime Role = "datetime"
	RoleOpen     Role = "open"
	RoleHigh     Role = "high"
	RoleLow      Role = "low"
	RoleClose    Role = "close"
)

// rolePredicates is the rule table, evaluated top to bottom per header. The
// datetime rule uses a substring match ("trade_date", "updated" and friends
// all qualify); the price rules are prefix matches so "close" and "closing"
// match but "preclose" does not.
var rolePredicates = []struct {
	role  Role
	match func(h string) bool
}{
	{RoleDateTime, func(h string) bool { return strings.Contains(h, "date") }},
	{RoleOpen, func(h string) bool { return strings.HasPrefix(h, "open") }},
	{RoleHigh, func(h string) bool { return strings.HasPrefix(h, "high") }},
	{RoleLow, func(h string) bool { return strings.HasPrefix(h, "low") }},
	{RoleClose, func(h string) bool { return strings.HasPrefix(h, "close") }},
}

// RoleMap records which column index fills each role. Roles with no matching
// header are absent.
type RoleMap map[Role]int

// MapRoles assigns roles to headers. Each header is normalized
// (trimmed, lowercased) and tested against the predicate list; the first
// predicate that matches claims the header for its role. When several headers
// claim the same role, the leftmost keeps it and the rest stay unmapped.
func MapRoles(headers []string) RoleMap {
	m := make(RoleMap)
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		for _, p := range rolePredicates {
			if !p.match(norm) {
				continue
			}
			if _, taken := m[p.role]; !taken {
				m[p.role] = i
			}
			break
		}
	}
	return m
}

// Complete reports whether every canonical role is filled.
func (m RoleMap) Complete() bool {
	for _, r := range []Role{RoleDateTime, RoleOpen, RoleHigh, RoleLow, RoleClose} {
		if _, ok := m[r]; !ok {
			return false
		}
	}
	return true
}

// ChartCapable reports whether typed can drive an OHLC chart: all five roles
// mapped, the datetime column actually typed as datetime, and the four price
// columns numeric.
func ChartCapable(typed *table.Typed, m RoleMap) bool {
	if !m.Complete() {
		return false
	}
	if typed.Columns[m[RoleDateTime]].Kind != table.DateTime {
		return false
	}
	for _, r := range []Role{RoleOpen, RoleHigh, RoleLow, RoleClose} {
		switch typed.Columns[m[r]].Kind {
		case table.Integer, table.Float:
		default:
			return false
		}
	}
	return true
}
