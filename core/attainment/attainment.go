// Package attainment folds raw per-question marks into Course Outcome attainment percentages,
// per student and per class.
package attainment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/user"
)

const unknown = "Unknown"

type (
	// Store is the read side of the record store needed to compute attainment.
	// GetQuestion and GetCourseOutcome return academic.ErrNotFound for missing records.
	Store interface {
		QueryStudentMarks(ctx context.Context, studentID string) ([]academic.StudentMarks, error)
		GetQuestion(ctx context.Context, id string) (academic.Question, error)
		GetCourseOutcome(ctx context.Context, id string) (academic.CourseOutcome, error)
	}

	// StudentFinder lists the students enrolled in a course.
	StudentFinder interface {
		QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error)
	}

	// COAttainment is a student's attainment of one CO.
	COAttainment struct {
		Code                 string  `json:"co_code"`
		Description          string  `json:"description"`
		AttainmentPercentage float64 `json:"attainment_percentage"`
		TotalMarks           float64 `json:"total_marks"`
		ObtainedMarks        float64 `json:"obtained_marks"`
	}

	StudentAttainment struct {
		StudentName          string  `json:"student_name"`
		AttainmentPercentage float64 `json:"attainment_percentage"`
	}

	// ClassCOAttainment is the attainment of one CO across the students of a course.
	ClassCOAttainment struct {
		Code               string              `json:"co_code"`
		Description        string              `json:"description"`
		StudentAttainments []StudentAttainment `json:"student_attainments"`
		ClassAverage       float64             `json:"class_average"`
	}

	Service struct {
		store    Store
		students StudentFinder
	}
)

func NewService(store Store, students StudentFinder) *Service {
	return &Service{store: store, students: students}
}

// Percentage is 100*obtained/total rounded to 2 decimals, or 0 when total is 0.
// It is not clamped: marks above the question's max yield more than 100.
func Percentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return core.Round2(100 * obtained / total)
}

// StudentCOAttainment computes the student's attainment of every CO they have marks for,
// keyed by CO id. Marks of all exams and courses are pooled per CO.
func (svc *Service) StudentCOAttainment(ctx context.Context, studentID string) (map[string]COAttainment, error) {
	marks, err := svc.store.QueryStudentMarks(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student marks")
	}

	type totals struct{ max, obtained float64 }
	perCO := make(map[string]*totals)
	order := make([]string, 0)

	for _, mark := range marks {
		q, err := svc.store.GetQuestion(ctx, mark.QuestionID)
		if err != nil {
			if errors.Cause(err) == academic.ErrNotFound {
				continue // question deleted or never existed: contributes nothing
			}
			return nil, errors.Wrap(err, "finding question")
		}
		t, ok := perCO[q.COID]
		if !ok {
			t = new(totals)
			perCO[q.COID] = t
			order = append(order, q.COID)
		}
		t.max += q.MaxMarks
		t.obtained += mark.MarksObtained
	}

	result := make(map[string]COAttainment, len(perCO))
	for _, coID := range order {
		t := perCO[coID]
		code, desc := unknown, unknown
		co, err := svc.store.GetCourseOutcome(ctx, coID)
		switch {
		case err == nil:
			code, desc = co.Code, co.Description
		case errors.Cause(err) != academic.ErrNotFound:
			return nil, errors.Wrap(err, "finding course outcome")
		}
		result[coID] = COAttainment{
			Code:                 code,
			Description:          desc,
			AttainmentPercentage: Percentage(t.obtained, t.max),
			TotalMarks:           t.max,
			ObtainedMarks:        t.obtained,
		}
	}
	return result, nil
}

// ClassCOAttainment computes, for every CO, the mean of the enrolled students' attainment percentages.
// Students without marks for a CO are left out of that CO's mean rather than counted as 0%.
func (svc *Service) ClassCOAttainment(ctx context.Context, courseID string) (map[string]ClassCOAttainment, error) {
	students, err := svc.students.QueryStudentsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolled students")
	}

	result := make(map[string]ClassCOAttainment)
	for _, student := range students {
		perCO, err := svc.StudentCOAttainment(ctx, student.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "computing attainment of student %s", student.ID)
		}
		for coID, att := range perCO {
			class, ok := result[coID]
			if !ok {
				class = ClassCOAttainment{
					Code:               att.Code,
					Description:        att.Description,
					StudentAttainments: make([]StudentAttainment, 0, len(students)),
				}
			}
			class.StudentAttainments = append(class.StudentAttainments, StudentAttainment{
				StudentName:          student.Name,
				AttainmentPercentage: att.AttainmentPercentage,
			})
			result[coID] = class
		}
	}

	for coID, class := range result {
		class.ClassAverage = mean(class.StudentAttainments)
		result[coID] = class
	}
	return result, nil
}

func mean(atts []StudentAttainment) float64 {
	if len(atts) == 0 {
		return 0
	}
	var sum float64
	for _, a := range atts {
		sum += a.AttainmentPercentage
	}
	return core.Round2(sum / float64(len(atts)))
}
