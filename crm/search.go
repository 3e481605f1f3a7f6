package crm

import "strings"

// Searchable exposes the fields free-text search looks at (name, company, email for people & companies).
type Searchable interface {
	SearchFields() []string
}

// Statused exposes a record's status for filtering.
type Statused interface {
	StatusValue() string
}

// Sourced exposes where a record came from (Referral, Website...) for filtering.
type Sourced interface {
	SourceValue() string
}

// Criteria narrows a list; a blank field matches everything.
type Criteria struct {
	Q      string
	Status string
	Source string
}

// Match reports whether item passes every criterion.
func (c Criteria) Match(item any) bool {
	return Matches(item, c.Q) && MatchesStatus(item, c.Status) && MatchesSource(item, c.Source)
}

// Matches reports whether any searchable field of item contains q, ignoring case. A blank q matches
// everything; a record that isn't Searchable only matches a blank q.
func Matches(item any, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}

	s, ok := item.(Searchable)
	if !ok {
		return false
	}
	for _, f := range s.SearchFields() {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Filter returns the items matching q, in order.
func Filter[T Searchable](items []T, q string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

// MatchesStatus reports whether item's status equals status, ignoring case. A blank status matches
// everything; a record without a status only matches a blank status.
func MatchesStatus(item any, status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return true
	}

	s, ok := item.(Statused)
	return ok && strings.EqualFold(s.StatusValue(), status)
}

// FilterStatus returns the items whose status equals status, ignoring case. A blank status keeps all.
func FilterStatus[T Statused](items []T, status string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesStatus(item, status) {
			out = append(out, item)
		}
	}
	return out
}

// MatchesSource reports whether item's source equals source, ignoring case. A blank source matches
// everything; a record without a source only matches a blank source.
func MatchesSource(item any, source string) bool {
	source = strings.TrimSpace(source)
	if source == "" {
		return true
	}

	s, ok := item.(Sourced)
	return ok && strings.EqualFold(s.SourceValue(), source)
}

// FilterSource returns the items whose source equals source, ignoring case. A blank source keeps all.
func FilterSource[T Sourced](items []T, source string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesSource(item, source) {
			out = append(out, item)
		}
	}
	return out
}
