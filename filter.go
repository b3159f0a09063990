package salish

import (
	"fmt"
	"strings"
)

// Filter lets an endpoint claim messages ahead of normal policy selection.
// Filters are evaluated in registration order when a message carries a
// source; the first endpoint with a matching filter wins.
type Filter interface {
	Matches(m *Message) bool
}

// SourceFilter matches messages whose source tag is a member of a set of
// registered tags. Membership uses interface equality, so tags of different
// types never collide even when their values print the same.
type SourceFilter struct {
	sources map[any]struct{}
}

// NewSourceFilter builds a filter matching any of the given source tags.
// Tags must be comparable values.
func NewSourceFilter(tags ...any) *SourceFilter {
	f := &SourceFilter{sources: make(map[any]struct{}, len(tags))}
	for _, tag := range tags {
		f.Add(tag)
	}
	return f
}

// Add registers another source tag with the filter and returns the filter
// for chaining.
func (f *SourceFilter) Add(tag any) *SourceFilter {
	f.sources[tag] = struct{}{}
	return f
}

// Matches reports whether the message carries a source tag registered with
// this filter. Messages without a source never match.
func (f *SourceFilter) Matches(m *Message) bool {
	if m.Source() == nil {
		return false
	}
	_, ok := f.sources[m.Source()]
	return ok
}

func (f *SourceFilter) String() string {
	var sb strings.Builder
	sb.WriteString("SourceFilter{")
	first := true
	for tag := range f.sources {
		if !first {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%T(%v)", tag, tag)
		first = false
	}
	sb.WriteString("}")
	return sb.String()
}
