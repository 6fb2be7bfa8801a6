package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/core"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, p Program) (Program, error)
		QueryPrograms(ctx context.Context) ([]Program, error)

		CreateCourse(ctx context.Context, c Course) (Course, error)
		// QueryCourses returns all courses when programID is empty.
		QueryCourses(ctx context.Context, programID string) ([]Course, error)

		CreateCourseOutcome(ctx context.Context, co CourseOutcome) (CourseOutcome, error)
		GetCourseOutcome(ctx context.Context, id string) (CourseOutcome, error)
		QueryCourseOutcomes(ctx context.Context, courseID string) ([]CourseOutcome, error)

		CreateProgramOutcome(ctx context.Context, po ProgramOutcome) (ProgramOutcome, error)
		QueryProgramOutcomes(ctx context.Context) ([]ProgramOutcome, error)

		CreateCOPOMap(ctx context.Context, m COPOMap) (COPOMap, error)
		QueryCOPOMaps(ctx context.Context, coID string) ([]COPOMap, error)

		CreateExam(ctx context.Context, e Exam) (Exam, error)
		QueryExams(ctx context.Context, courseID string) ([]Exam, error)

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		QueryQuestions(ctx context.Context, examID string) ([]Question, error)

		CreateStudentMarks(ctx context.Context, m StudentMarks) (StudentMarks, error)
		QueryStudentMarks(ctx context.Context, studentID string) ([]StudentMarks, error)
	}

	// Service manages the academic records. Referenced ids (program, course, exam, CO, PO, student)
	// are not checked for existence.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func now() time.Time { return time.Now().UTC() }

func (svc *Service) CreateProgram(ctx context.Context, np NewProgram) (Program, error) {
	return svc.repo.CreateProgram(ctx, Program{Name: np.Name, CreatedAt: now()})
}

func (svc *Service) QueryPrograms(ctx context.Context) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx)
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{
		Name:      nc.Name,
		Semester:  nc.Semester,
		ProgramID: nc.ProgramID,
		CreatedAt: now(),
	})
}

func (svc *Service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, "")
}

func (svc *Service) QueryCoursesByProgram(ctx context.Context, programID string) ([]Course, error) {
	if programID == "" {
		return nil, nil
	}
	return svc.repo.QueryCourses(ctx, programID)
}

func (svc *Service) CreateCourseOutcome(ctx context.Context, nco NewCourseOutcome) (CourseOutcome, error) {
	return svc.repo.CreateCourseOutcome(ctx, CourseOutcome{
		CourseID:    nco.CourseID,
		Code:        nco.Code,
		Description: nco.Description,
		CreatedAt:   now(),
	})
}

func (svc *Service) QueryCourseOutcomes(ctx context.Context, courseID string) ([]CourseOutcome, error) {
	return svc.repo.QueryCourseOutcomes(ctx, courseID)
}

func (svc *Service) CreateProgramOutcome(ctx context.Context, npo NewProgramOutcome) (ProgramOutcome, error) {
	return svc.repo.CreateProgramOutcome(ctx, ProgramOutcome{
		Code:        npo.Code,
		Description: npo.Description,
		CreatedAt:   now(),
	})
}

func (svc *Service) QueryProgramOutcomes(ctx context.Context) ([]ProgramOutcome, error) {
	return svc.repo.QueryProgramOutcomes(ctx)
}

func (svc *Service) CreateCOPOMap(ctx context.Context, nm NewCOPOMap) (COPOMap, error) {
	return svc.repo.CreateCOPOMap(ctx, COPOMap{COID: nm.COID, POID: nm.POID, CreatedAt: now()})
}

func (svc *Service) QueryCOPOMaps(ctx context.Context, coID string) ([]COPOMap, error) {
	return svc.repo.QueryCOPOMaps(ctx, coID)
}

func (svc *Service) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	return svc.repo.CreateExam(ctx, Exam{
		CourseID:  ne.CourseID,
		ExamType:  ne.ExamType,
		ExamDate:  ne.ExamDate.UTC(),
		CreatedAt: now(),
	})
}

func (svc *Service) QueryExams(ctx context.Context, courseID string) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, courseID)
}

func (svc *Service) CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	poIDs := nq.POIDs
	if poIDs == nil {
		poIDs = []string{}
	}
	return svc.repo.CreateQuestion(ctx, Question{
		ExamID:    nq.ExamID,
		Text:      nq.Text,
		MaxMarks:  nq.MaxMarks,
		COID:      nq.COID,
		POIDs:     poIDs,
		CreatedAt: now(),
	})
}

func (svc *Service) QueryQuestions(ctx context.Context, examID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, examID)
}

// CreateStudentMarks records a mark. A second mark for the same (student, question) pair is
// stored as well and counts twice in attainment.
func (svc *Service) CreateStudentMarks(ctx context.Context, nsm NewStudentMarks) (StudentMarks, error) {
	if nsm.MarksObtained == nil {
		return StudentMarks{}, core.NewValidationError(nil, core.FieldError{Field: "marks_obtained", Error: "this field is required"})
	}
	return svc.repo.CreateStudentMarks(ctx, StudentMarks{
		StudentID:     nsm.StudentID,
		QuestionID:    nsm.QuestionID,
		MarksObtained: *nsm.MarksObtained,
		CreatedAt:     now(),
	})
}

func (svc *Service) QueryStudentMarks(ctx context.Context, studentID string) ([]StudentMarks, error) {
	return svc.repo.QueryStudentMarks(ctx, studentID)
}
