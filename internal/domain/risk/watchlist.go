package risk

import (
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-TEACHER WATCHLIST
// ══════════════════════════════════════════════════════════════════════════════

// Candidate pairs an assessment with the student's primary teacher.
// The scorer is pure over logs; the caller joins in the teacher.
type Candidate struct {
	TeacherID  string
	Assessment *Assessment
}

// TeacherWatchlist is the top-K most at-risk students for one teacher,
// sorted by descending composite score.
type TeacherWatchlist struct {
	TeacherID string
	Entries   []*Assessment
}

// BuildWatchlists groups candidates by teacher and retains the top-K by
// descending composite score per teacher. Unclassified (insufficient
// data) candidates never make a watchlist. Ties on composite score break
// by ascending student ID so the selection is deterministic.
func BuildWatchlists(candidates []Candidate, k int) []TeacherWatchlist {
	if k <= 0 {
		return nil
	}

	byTeacher := make(map[string][]*Assessment)
	for _, c := range candidates {
		if c.Assessment == nil || !c.Assessment.Level.IsClassified() {
			continue
		}
		byTeacher[c.TeacherID] = append(byTeacher[c.TeacherID], c.Assessment)
	}

	teacherIDs := make([]string, 0, len(byTeacher))
	for id := range byTeacher {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	result := make([]TeacherWatchlist, 0, len(teacherIDs))
	for _, teacherID := range teacherIDs {
		entries := byTeacher[teacherID]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].CompositeScore != entries[j].CompositeScore {
				return entries[i].CompositeScore > entries[j].CompositeScore
			}
			return entries[i].StudentID < entries[j].StudentID
		})
		if len(entries) > k {
			entries = entries[:k]
		}
		result = append(result, TeacherWatchlist{TeacherID: teacherID, Entries: entries})
	}

	return result
}
