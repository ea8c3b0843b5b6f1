package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"

	"github.com/noah-isme/school-admin-api/internal/models"
)

var foldCaser = cases.Fold()

func foldKey(name string) string {
	return foldCaser.String(strings.Join(strings.Fields(name), " "))
}

// NameIndex is a case-insensitive name to id map that remembers insertion order.
type NameIndex struct {
	ids   map[string]string
	names map[string]string
	order []string
}

// NewNameIndex builds an empty index.
func NewNameIndex() *NameIndex {
	return &NameIndex{ids: make(map[string]string), names: make(map[string]string)}
}

// Add registers name for id. The first registration of a name wins.
func (n *NameIndex) Add(name, id string) {
	key := foldKey(name)
	if key == "" {
		return
	}
	if _, exists := n.ids[key]; exists {
		return
	}
	n.ids[key] = id
	n.names[key] = strings.TrimSpace(name)
	n.order = append(n.order, key)
}

// AddAlias makes alias resolve to whatever canonical resolves to.
// It reports false when canonical is unknown.
func (n *NameIndex) AddAlias(alias, canonical string) bool {
	id, ok := n.Lookup(canonical)
	if !ok {
		return false
	}
	n.Add(alias, id)
	return true
}

// Lookup is an exact case-insensitive match.
func (n *NameIndex) Lookup(name string) (string, bool) {
	id, ok := n.ids[foldKey(name)]
	return id, ok
}

// Len returns the number of distinct keys.
func (n *NameIndex) Len() int { return len(n.order) }

// Contains scans keys in insertion order for the first one that contains, or is
// contained in, name. Both sides must be at least minLen runes long.
func (n *NameIndex) Contains(name string, minLen int) (string, bool) {
	candidate := foldKey(name)
	if candidate == "" || utf8.RuneCountInString(candidate) < minLen {
		return "", false
	}
	for _, stored := range n.order {
		if utf8.RuneCountInString(stored) < minLen {
			continue
		}
		if strings.Contains(candidate, stored) || strings.Contains(stored, candidate) {
			return n.ids[stored], true
		}
	}
	return "", false
}

// Suggest returns the closest known display name for name, for error hints only.
func (n *NameIndex) Suggest(name string) (string, bool) {
	candidate := foldKey(name)
	if candidate == "" || len(n.order) == 0 {
		return "", false
	}
	ranks := fuzzy.RankFindNormalizedFold(candidate, n.order)
	if len(ranks) == 0 {
		// fall back to the reverse direction so longer inputs still get a hint
		for _, stored := range n.order {
			if fuzzy.MatchNormalizedFold(stored, candidate) {
				return n.names[stored], true
			}
		}
		return "", false
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return n.names[best.Target], true
}

var (
	yearGroupShortPattern = regexp.MustCompile(`(?i)\bY(\d{1,2})\b`)
	yearGroupLongPattern  = regexp.MustCompile(`(?i)\bYear\s*(\d{1,2})\b`)
)

// NormalizeYearGroup extracts the year number from labels like "Y10", "Year 10" or
// "Y10 Maths" and returns its canonical forms ("Year 10", "Y10").
func NormalizeYearGroup(label string) ([]string, bool) {
	m := yearGroupLongPattern.FindStringSubmatch(label)
	if m == nil {
		m = yearGroupShortPattern.FindStringSubmatch(label)
	}
	if m == nil {
		return nil, false
	}
	number := strings.TrimLeft(m[1], "0")
	if number == "" {
		number = "0"
	}
	return []string{"Year " + number, "Y" + number}, true
}

// ReferenceSet holds the per-import lookup tables, built once from bulk fetches.
// It is owned by a single import call and never shared.
type ReferenceSet struct {
	Teachers   *NameIndex
	Students   *NameIndex
	Subjects   *NameIndex
	YearGroups *NameIndex

	// SubjectMinMatch is the minimum rune length for substring subject matching.
	SubjectMinMatch int

	subjectDepartments map[string]*string
}

// NewReferenceSet indexes the supplied reference entities. Aliases map extra subject
// names onto existing subject names; aliases to unknown subjects are ignored.
func NewReferenceSet(teachers []models.Teacher, students []models.Student, subjects []models.Subject, yearGroups []models.YearGroup, aliases map[string]string, minMatch int) *ReferenceSet {
	set := &ReferenceSet{
		Teachers:           NewNameIndex(),
		Students:           NewNameIndex(),
		Subjects:           NewNameIndex(),
		YearGroups:         NewNameIndex(),
		SubjectMinMatch:    minMatch,
		subjectDepartments: make(map[string]*string, len(subjects)),
	}
	for _, t := range teachers {
		set.Teachers.Add(t.FullName, t.ID)
	}
	for _, s := range students {
		set.Students.Add(s.FullName, s.ID)
	}
	for _, s := range subjects {
		set.Subjects.Add(s.Name, s.ID)
		set.subjectDepartments[s.ID] = s.DepartmentID
	}
	for _, y := range yearGroups {
		set.YearGroups.Add(y.Name, y.ID)
	}
	aliasKeys := make([]string, 0, len(aliases))
	for alias := range aliases {
		aliasKeys = append(aliasKeys, alias)
	}
	sort.Strings(aliasKeys)
	for _, alias := range aliasKeys {
		set.Subjects.AddAlias(alias, aliases[alias])
	}
	return set
}

// ResolveTeacher matches a full name exactly, ignoring case.
func (r *ReferenceSet) ResolveTeacher(name string) (string, bool) {
	return r.Teachers.Lookup(name)
}

// ResolveStudent matches a full name exactly, ignoring case.
func (r *ReferenceSet) ResolveStudent(name string) (string, bool) {
	return r.Students.Lookup(name)
}

// ResolveSubject tries an exact match, then literal substring containment in either
// direction in insertion order. The first hit wins; there is no ranking.
func (r *ReferenceSet) ResolveSubject(name string) (string, bool) {
	if id, ok := r.Subjects.Lookup(name); ok {
		return id, true
	}
	return r.Subjects.Contains(name, r.SubjectMinMatch)
}

// ResolveYearGroup tries the normalized "Year N"/"YN" forms, then the raw label.
func (r *ReferenceSet) ResolveYearGroup(label string) (string, bool) {
	if forms, ok := NormalizeYearGroup(label); ok {
		for _, form := range forms {
			if id, found := r.YearGroups.Lookup(form); found {
				return id, true
			}
		}
	}
	return r.YearGroups.Lookup(label)
}

// SubjectDepartment returns the department owning subjectID, if any.
func (r *ReferenceSet) SubjectDepartment(subjectID string) *string {
	return r.subjectDepartments[subjectID]
}

// notFoundMessage formats a resolver miss with an optional "did you mean" hint.
func notFoundMessage(kind, name string, index *NameIndex) string {
	msg := fmt.Sprintf("%s not found: %s", kind, name)
	if index == nil {
		return msg
	}
	if hint, ok := index.Suggest(name); ok && !strings.EqualFold(hint, name) {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}
	return msg
}
