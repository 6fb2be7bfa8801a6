package attainment

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/user"
)

type fakeStore struct {
	marks     map[string][]academic.StudentMarks
	questions map[string]academic.Question
	cos       map[string]academic.CourseOutcome
	students  map[string][]user.User
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		marks:     make(map[string][]academic.StudentMarks),
		questions: make(map[string]academic.Question),
		cos:       make(map[string]academic.CourseOutcome),
		students:  make(map[string][]user.User),
	}
}

func (s *fakeStore) QueryStudentMarks(_ context.Context, studentID string) ([]academic.StudentMarks, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.marks[studentID], nil
}

func (s *fakeStore) GetQuestion(_ context.Context, id string) (academic.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return academic.Question{}, errors.Wrap(academic.ErrNotFound, "getting question")
	}
	return q, nil
}

func (s *fakeStore) GetCourseOutcome(_ context.Context, id string) (academic.CourseOutcome, error) {
	co, ok := s.cos[id]
	if !ok {
		return academic.CourseOutcome{}, academic.ErrNotFound
	}
	return co, nil
}

func (s *fakeStore) QueryStudentsByCourse(_ context.Context, courseID string) ([]user.User, error) {
	return s.students[courseID], nil
}

func (s *fakeStore) addQuestion(id, coID string, max float64) {
	s.questions[id] = academic.Question{ID: id, COID: coID, MaxMarks: max}
}

func (s *fakeStore) addMark(studentID, questionID string, obtained float64) {
	s.marks[studentID] = append(s.marks[studentID], academic.StudentMarks{
		StudentID:     studentID,
		QuestionID:    questionID,
		MarksObtained: obtained,
	})
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name            string
		obtained, total float64
		want            float64
	}{
		{name: "zero total", obtained: 5, total: 0, want: 0},
		{name: "exact", obtained: 8.5, total: 10, want: 85},
		{name: "rounded", obtained: 13, total: 15, want: 86.67},
		{name: "over max", obtained: 12, total: 10, want: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.obtained, tt.total))
		})
	}
}

func TestService_StudentCOAttainment(t *testing.T) {
	ctx := context.Background()

	t.Run("no marks", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil)
		got, err := svc.StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("single mark", func(t *testing.T) {
		store := newFakeStore()
		store.cos["co1"] = academic.CourseOutcome{ID: "co1", Code: "CO1", Description: "Design"}
		store.addQuestion("q1", "co1", 10)
		store.addMark("s1", "q1", 8.5)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, map[string]COAttainment{
			"co1": {Code: "CO1", Description: "Design", AttainmentPercentage: 85, TotalMarks: 10, ObtainedMarks: 8.5},
		}, got)
	})

	t.Run("marks pooled per CO", func(t *testing.T) {
		store := newFakeStore()
		store.cos["co1"] = academic.CourseOutcome{ID: "co1", Code: "CO1", Description: "Design"}
		store.addQuestion("q1", "co1", 10)
		store.addQuestion("q2", "co1", 5)
		store.addMark("s1", "q1", 8)
		store.addMark("s1", "q2", 5)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		require.Contains(t, got, "co1")
		assert.Equal(t, 86.67, got["co1"].AttainmentPercentage)
		assert.Equal(t, 15.0, got["co1"].TotalMarks)
		assert.Equal(t, 13.0, got["co1"].ObtainedMarks)
	})

	t.Run("duplicate marks count twice", func(t *testing.T) {
		store := newFakeStore()
		store.cos["co1"] = academic.CourseOutcome{ID: "co1", Code: "CO1"}
		store.addQuestion("q1", "co1", 10)
		store.addMark("s1", "q1", 4)
		store.addMark("s1", "q1", 6)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 20.0, got["co1"].TotalMarks)
		assert.Equal(t, 10.0, got["co1"].ObtainedMarks)
		assert.Equal(t, 50.0, got["co1"].AttainmentPercentage)
	})

	t.Run("missing question skipped", func(t *testing.T) {
		store := newFakeStore()
		store.cos["co1"] = academic.CourseOutcome{ID: "co1", Code: "CO1"}
		store.addQuestion("q1", "co1", 10)
		store.addMark("s1", "q1", 7)
		store.addMark("s1", "gone", 100)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 70.0, got["co1"].AttainmentPercentage)
	})

	t.Run("missing CO is Unknown", func(t *testing.T) {
		store := newFakeStore()
		store.addQuestion("q1", "ghost", 4)
		store.addMark("s1", "q1", 3)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, COAttainment{
			Code: "Unknown", Description: "Unknown", AttainmentPercentage: 75, TotalMarks: 4, ObtainedMarks: 3,
		}, got["ghost"])
	})

	t.Run("marks above max not clamped", func(t *testing.T) {
		store := newFakeStore()
		store.addQuestion("q1", "co1", 10)
		store.addMark("s1", "q1", 15)

		got, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 150.0, got["co1"].AttainmentPercentage)
	})

	t.Run("store error propagates", func(t *testing.T) {
		store := newFakeStore()
		store.err = errors.New("connection refused")

		_, err := NewService(store, nil).StudentCOAttainment(ctx, "s1")
		require.Error(t, err)
		assert.Equal(t, store.err, errors.Cause(err))
	})
}

func TestService_ClassCOAttainment(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.cos["co1"] = academic.CourseOutcome{ID: "co1", Code: "CO1", Description: "Design"}
	store.cos["co2"] = academic.CourseOutcome{ID: "co2", Code: "CO2", Description: "Analysis"}
	store.addQuestion("q1", "co1", 10)
	store.addQuestion("q2", "co2", 10)

	store.students["c1"] = []user.User{
		{ID: "s1", Name: "Alice", Role: user.RoleStudent},
		{ID: "s2", Name: "Bob", Role: user.RoleStudent},
		{ID: "s3", Name: "Carol", Role: user.RoleStudent},
	}
	store.addMark("s1", "q1", 8)
	store.addMark("s1", "q2", 5)
	store.addMark("s2", "q1", 6)
	// s3 has no marks at all

	svc := NewService(store, store)

	t.Run("class averages", func(t *testing.T) {
		got, err := svc.ClassCOAttainment(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, got, 2)

		co1 := got["co1"]
		assert.Equal(t, "CO1", co1.Code)
		assert.Equal(t, "Design", co1.Description)
		assert.ElementsMatch(t, []StudentAttainment{
			{StudentName: "Alice", AttainmentPercentage: 80},
			{StudentName: "Bob", AttainmentPercentage: 60},
		}, co1.StudentAttainments)
		assert.Equal(t, 70.0, co1.ClassAverage)

		// Bob has no CO2 data: left out rather than counted as 0
		co2 := got["co2"]
		assert.Equal(t, []StudentAttainment{{StudentName: "Alice", AttainmentPercentage: 50}}, co2.StudentAttainments)
		assert.Equal(t, 50.0, co2.ClassAverage)
	})

	t.Run("no students", func(t *testing.T) {
		got, err := svc.ClassCOAttainment(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("mean of percentages is rounded", func(t *testing.T) {
		store := newFakeStore()
		store.addQuestion("q1", "co1", 3)
		store.students["c1"] = []user.User{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}
		store.addMark("a", "q1", 1) // 33.33
		store.addMark("b", "q1", 2) // 66.67
		store.addMark("c", "q1", 2) // 66.67

		got, err := NewService(store, store).ClassCOAttainment(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 55.56, got["co1"].ClassAverage)
	})
}
