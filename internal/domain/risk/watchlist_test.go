package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidate(teacherID, studentID string, composite float64, level Level) Candidate {
	return Candidate{
		TeacherID: teacherID,
		Assessment: &Assessment{
			StudentID:      studentID,
			CompositeScore: composite,
			Level:          level,
		},
	}
}

func TestBuildWatchlists_TopKPerTeacher(t *testing.T) {
	candidates := []Candidate{
		candidate("t-1", "stu-a", 80, LevelHigh),
		candidate("t-1", "stu-b", 40, LevelMedium),
		candidate("t-1", "stu-c", 10, LevelLow),
		candidate("t-1", "stu-d", 55, LevelMedium),
	}

	lists := BuildWatchlists(candidates, 3)
	assert.Len(t, lists, 1)
	assert.Equal(t, "t-1", lists[0].TeacherID)
	assert.Len(t, lists[0].Entries, 3)

	// Descending composite; the low scorer falls off.
	assert.Equal(t, "stu-a", lists[0].Entries[0].StudentID)
	assert.Equal(t, "stu-d", lists[0].Entries[1].StudentID)
	assert.Equal(t, "stu-b", lists[0].Entries[2].StudentID)
}

func TestBuildWatchlists_TieBreaksByStudentID(t *testing.T) {
	candidates := []Candidate{
		candidate("t-1", "stu-b", 50, LevelMedium),
		candidate("t-1", "stu-a", 50, LevelMedium),
	}

	lists := BuildWatchlists(candidates, 2)
	assert.Len(t, lists, 1)
	assert.Equal(t, "stu-a", lists[0].Entries[0].StudentID)
	assert.Equal(t, "stu-b", lists[0].Entries[1].StudentID)
}

func TestBuildWatchlists_ExcludesUnclassified(t *testing.T) {
	candidates := []Candidate{
		candidate("t-1", "stu-a", 0, LevelInsufficient),
		candidate("t-1", "stu-b", 20, LevelLow),
		{TeacherID: "t-1", Assessment: nil},
	}

	lists := BuildWatchlists(candidates, 3)
	assert.Len(t, lists, 1)
	assert.Len(t, lists[0].Entries, 1)
	assert.Equal(t, "stu-b", lists[0].Entries[0].StudentID)
}

func TestBuildWatchlists_TeachersSorted(t *testing.T) {
	candidates := []Candidate{
		candidate("t-zeta", "stu-a", 70, LevelHigh),
		candidate("t-alpha", "stu-b", 70, LevelHigh),
		candidate("t-mid", "stu-c", 70, LevelHigh),
	}

	lists := BuildWatchlists(candidates, 1)
	assert.Len(t, lists, 3)
	assert.Equal(t, "t-alpha", lists[0].TeacherID)
	assert.Equal(t, "t-mid", lists[1].TeacherID)
	assert.Equal(t, "t-zeta", lists[2].TeacherID)
}

func TestBuildWatchlists_NonPositiveK(t *testing.T) {
	candidates := []Candidate{
		candidate("t-1", "stu-a", 70, LevelHigh),
	}

	assert.Nil(t, BuildWatchlists(candidates, 0))
	assert.Nil(t, BuildWatchlists(candidates, -1))
}
