package academic

import (
	"time"

	"github.com/trezcool/copo/core"
)

// Exam types used by convention; any string is accepted.
const (
	ExamInternal = "Internal"
	ExamFinal    = "Final"
)

type Program struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Course struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Semester  int       `json:"semester"`
	ProgramID string    `json:"program_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseOutcome (CO) is a learning objective of one course.
type CourseOutcome struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Code        string    `json:"co_code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProgramOutcome (PO) is a program-wide learning objective.
type ProgramOutcome struct {
	ID          string    `json:"id"`
	Code        string    `json:"po_code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// COPOMap links a CO to a PO. There is no weight.
type COPOMap struct {
	ID        string    `json:"id"`
	COID      string    `json:"co_id"`
	POID      string    `json:"po_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Exam struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	ExamType  string    `json:"exam_type"`
	ExamDate  time.Time `json:"exam_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Question attributes to exactly one CO. POIDs are informational.
type Question struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	Text      string    `json:"text"`
	MaxMarks  float64   `json:"max_marks"`
	COID      string    `json:"co_id"`
	POIDs     []string  `json:"po_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentMarks is the mark of a student on a question.
// MarksObtained is not checked against Question.MaxMarks.
type StudentMarks struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	QuestionID    string    `json:"question_id"`
	MarksObtained float64   `json:"marks_obtained"`
	CreatedAt     time.Time `json:"created_at"`
}

type NewProgram struct {
	Name string `json:"name" validate:"required"`
}

type NewCourse struct {
	Name      string `json:"name" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1"`
	ProgramID string `json:"program_id" validate:"required"`
}

type NewCourseOutcome struct {
	CourseID    string `json:"course_id" validate:"required"`
	Code        string `json:"co_code" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type NewProgramOutcome struct {
	Code        string `json:"po_code" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type NewCOPOMap struct {
	COID string `json:"co_id" validate:"required"`
	POID string `json:"po_id" validate:"required"`
}

type NewExam struct {
	CourseID string    `json:"course_id" validate:"required"`
	ExamType string    `json:"exam_type" validate:"required"`
	ExamDate time.Time `json:"exam_date" validate:"required"`
}

type NewQuestion struct {
	ExamID   string   `json:"exam_id" validate:"required"`
	Text     string   `json:"text" validate:"required"`
	MaxMarks float64  `json:"max_marks" validate:"gt=0"`
	COID     string   `json:"co_id" validate:"required"`
	POIDs    []string `json:"po_ids" validate:"omitempty,dive,required"`
}

type NewStudentMarks struct {
	StudentID     string  `json:"student_id" validate:"required"`
	QuestionID    string  `json:"question_id" validate:"required"`
	MarksObtained *float64 `json:"marks_obtained" validate:"required"` // 0 is a mark, absent is not
}

func (np *NewProgram) Validate(validate structValidator) error {
	np.Name = core.CleanString(np.Name)
	return validate.Struct(np)
}

func (nc *NewCourse) Validate(validate structValidator) error {
	nc.Name = core.CleanString(nc.Name)
	nc.ProgramID = core.CleanString(nc.ProgramID)
	return validate.Struct(nc)
}

func (nco *NewCourseOutcome) Validate(validate structValidator) error {
	nco.CourseID = core.CleanString(nco.CourseID)
	nco.Code = core.CleanString(nco.Code)
	nco.Description = core.CleanString(nco.Description)
	return validate.Struct(nco)
}

func (npo *NewProgramOutcome) Validate(validate structValidator) error {
	npo.Code = core.CleanString(npo.Code)
	npo.Description = core.CleanString(npo.Description)
	return validate.Struct(npo)
}

func (nm *NewCOPOMap) Validate(validate structValidator) error {
	nm.COID = core.CleanString(nm.COID)
	nm.POID = core.CleanString(nm.POID)
	return validate.Struct(nm)
}

func (ne *NewExam) Validate(validate structValidator) error {
	ne.CourseID = core.CleanString(ne.CourseID)
	ne.ExamType = core.CleanString(ne.ExamType)
	return validate.Struct(ne)
}

func (nq *NewQuestion) Validate(validate structValidator) error {
	nq.ExamID = core.CleanString(nq.ExamID)
	nq.Text = core.CleanString(nq.Text)
	nq.COID = core.CleanString(nq.COID)
	return validate.Struct(nq)
}

func (nsm *NewStudentMarks) Validate(validate structValidator) error {
	nsm.StudentID = core.CleanString(nsm.StudentID)
	nsm.QuestionID = core.CleanString(nsm.QuestionID)
	return validate.Struct(nsm)
}

// structValidator is satisfied by *validator.Validate.
type structValidator interface {
	Struct(s interface{}) error
}
