// Package nav decides which section a run presents next, honoring numeric
// section order, rule-driven visibility, and explicit skip targets.
package nav

import (
	"cmp"
	"slices"

	"github.com/fieldline/engine/pkg/api"
)

// NextSection returns the first visible section strictly after current in
// numeric order. An empty current starts from the beginning; an unknown
// current reports no further section. ok is false when no visible section
// remains, which callers read as workflow completion
func NextSection(
	current api.SectionID, sections []*api.Section,
	visible api.Set[api.SectionID],
) (api.SectionID, bool) {
	ordered := ordered(sections)

	start := 0
	if current != "" {
		idx := slices.IndexFunc(ordered, func(s *api.Section) bool {
			return s.ID == current
		})
		if idx < 0 {
			return "", false
		}
		start = idx + 1
	}

	for _, s := range ordered[start:] {
		if visible.Contains(s.ID) {
			return s.ID, true
		}
	}
	return "", false
}

// ResolveNextSection applies an explicit skip target before falling back to
// ordinary forward navigation. A visible skip target is returned directly.
// A hidden one becomes the new scan origin, so the jump lands near its
// target and navigation continues forward from there
func ResolveNextSection(
	current, skipTarget api.SectionID, sections []*api.Section,
	visible api.Set[api.SectionID],
) (api.SectionID, bool) {
	if skipTarget == "" {
		return NextSection(current, sections, visible)
	}
	if visible.Contains(skipTarget) {
		return skipTarget, true
	}
	return NextSection(skipTarget, sections, visible)
}

// ordered returns the sections sorted by numeric order. Slice position is
// not ordering authority, so callers may pass sections in any sequence
func ordered(sections []*api.Section) []*api.Section {
	res := make([]*api.Section, 0, len(sections))
	for _, s := range sections {
		if s != nil {
			res = append(res, s)
		}
	}
	slices.SortStableFunc(res, func(a, b *api.Section) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return res
}
