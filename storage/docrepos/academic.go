package docrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/storage/docstore"
)

// collections
const (
	collPrograms        = "programs"
	collCourses         = "courses"
	collCourseOutcomes  = "course_outcomes"
	collProgramOutcomes = "program_outcomes"
	collCOPOMaps        = "co_po_mappings"
	collExams           = "exams"
	collQuestions       = "questions"
	collStudentMarks    = "student_marks"
)

// academic records are stored as-is: their JSON form is their document form.
type academicRepository struct {
	store docstore.Store
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(store docstore.Store) *academicRepository {
	return &academicRepository{store: store}
}

func newID() string { return uuid.New().String() }

func (repo academicRepository) insert(ctx context.Context, collection, id string, doc interface{}) error {
	return errors.Wrapf(repo.store.Insert(ctx, collection, id, doc), "inserting into %s", collection)
}

func (repo academicRepository) get(ctx context.Context, collection, id string, out interface{}) error {
	if err := repo.store.Get(ctx, collection, id, out); err != nil {
		if errors.Cause(err) == docstore.ErrNotFound {
			return academic.ErrNotFound
		}
		return errors.Wrapf(err, "finding %s", collection)
	}
	return nil
}

func (repo academicRepository) find(ctx context.Context, collection string, out interface{}, filters ...docstore.Filter) error {
	return errors.Wrapf(repo.store.Find(ctx, collection, out, filters...), "querying %s", collection)
}

func (repo academicRepository) CreateProgram(ctx context.Context, p academic.Program) (academic.Program, error) {
	p.ID = newID()
	if err := repo.insert(ctx, collPrograms, p.ID, p); err != nil {
		return academic.Program{}, err
	}
	return p, nil
}

func (repo academicRepository) QueryPrograms(ctx context.Context) ([]academic.Program, error) {
	var programs []academic.Program
	err := repo.find(ctx, collPrograms, &programs)
	return programs, err
}

func (repo academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	c.ID = newID()
	if err := repo.insert(ctx, collCourses, c.ID, c); err != nil {
		return academic.Course{}, err
	}
	return c, nil
}

func (repo academicRepository) QueryCourses(ctx context.Context, programID string) ([]academic.Course, error) {
	var filters []docstore.Filter
	if programID != "" {
		filters = append(filters, docstore.Eq("program_id", programID))
	}
	var courses []academic.Course
	err := repo.find(ctx, collCourses, &courses, filters...)
	return courses, err
}

func (repo academicRepository) CreateCourseOutcome(ctx context.Context, co academic.CourseOutcome) (academic.CourseOutcome, error) {
	co.ID = newID()
	if err := repo.insert(ctx, collCourseOutcomes, co.ID, co); err != nil {
		return academic.CourseOutcome{}, err
	}
	return co, nil
}

func (repo academicRepository) GetCourseOutcome(ctx context.Context, id string) (academic.CourseOutcome, error) {
	var co academic.CourseOutcome
	if err := repo.get(ctx, collCourseOutcomes, id, &co); err != nil {
		return academic.CourseOutcome{}, err
	}
	return co, nil
}

func (repo academicRepository) QueryCourseOutcomes(ctx context.Context, courseID string) ([]academic.CourseOutcome, error) {
	var cos []academic.CourseOutcome
	err := repo.find(ctx, collCourseOutcomes, &cos, docstore.Eq("course_id", courseID))
	return cos, err
}

func (repo academicRepository) CreateProgramOutcome(ctx context.Context, po academic.ProgramOutcome) (academic.ProgramOutcome, error) {
	po.ID = newID()
	if err := repo.insert(ctx, collProgramOutcomes, po.ID, po); err != nil {
		return academic.ProgramOutcome{}, err
	}
	return po, nil
}

func (repo academicRepository) QueryProgramOutcomes(ctx context.Context) ([]academic.ProgramOutcome, error) {
	var pos []academic.ProgramOutcome
	err := repo.find(ctx, collProgramOutcomes, &pos)
	return pos, err
}

func (repo academicRepository) CreateCOPOMap(ctx context.Context, m academic.COPOMap) (academic.COPOMap, error) {
	m.ID = newID()
	if err := repo.insert(ctx, collCOPOMaps, m.ID, m); err != nil {
		return academic.COPOMap{}, err
	}
	return m, nil
}

func (repo academicRepository) QueryCOPOMaps(ctx context.Context, coID string) ([]academic.COPOMap, error) {
	var maps []academic.COPOMap
	err := repo.find(ctx, collCOPOMaps, &maps, docstore.Eq("co_id", coID))
	return maps, err
}

func (repo academicRepository) CreateExam(ctx context.Context, e academic.Exam) (academic.Exam, error) {
	e.ID = newID()
	if err := repo.insert(ctx, collExams, e.ID, e); err != nil {
		return academic.Exam{}, err
	}
	return e, nil
}

func (repo academicRepository) QueryExams(ctx context.Context, courseID string) ([]academic.Exam, error) {
	var exams []academic.Exam
	err := repo.find(ctx, collExams, &exams, docstore.Eq("course_id", courseID))
	return exams, err
}

func (repo academicRepository) CreateQuestion(ctx context.Context, q academic.Question) (academic.Question, error) {
	q.ID = newID()
	if err := repo.insert(ctx, collQuestions, q.ID, q); err != nil {
		return academic.Question{}, err
	}
	return q, nil
}

func (repo academicRepository) GetQuestion(ctx context.Context, id string) (academic.Question, error) {
	var q academic.Question
	if err := repo.get(ctx, collQuestions, id, &q); err != nil {
		return academic.Question{}, err
	}
	return q, nil
}

func (repo academicRepository) QueryQuestions(ctx context.Context, examID string) ([]academic.Question, error) {
	var questions []academic.Question
	err := repo.find(ctx, collQuestions, &questions, docstore.Eq("exam_id", examID))
	return questions, err
}

func (repo academicRepository) CreateStudentMarks(ctx context.Context, m academic.StudentMarks) (academic.StudentMarks, error) {
	m.ID = newID()
	if err := repo.insert(ctx, collStudentMarks, m.ID, m); err != nil {
		return academic.StudentMarks{}, err
	}
	return m, nil
}

func (repo academicRepository) QueryStudentMarks(ctx context.Context, studentID string) ([]academic.StudentMarks, error) {
	var marks []academic.StudentMarks
	err := repo.find(ctx, collStudentMarks, &marks, docstore.Eq("student_id", studentID))
	return marks, err
}
