package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/user"
)

type analyticsFixture struct {
	alice, bob, carol user.User
	co1, co2          academic.CourseOutcome
	q1, q2            academic.Question
}

// newAnalyticsFixture enrolls alice, bob & carol in c1 and marks alice & bob on CO1, only alice on CO2.
func newAnalyticsFixture(t *testing.T, app *testApp) analyticsFixture {
	var f analyticsFixture
	var err error

	f.alice = app.createUser(t, "Alice", "alice@test.edu", user.RoleStudent, "c1")
	f.bob = app.createUser(t, "Bob", "bob@test.edu", user.RoleStudent, "c1")
	f.carol = app.createUser(t, "Carol", "carol@test.edu", user.RoleStudent, "c1")

	f.co1, err = app.acadSvc.CreateCourseOutcome(bg, academic.NewCourseOutcome{CourseID: "c1", Code: "CO1", Description: "Design"})
	mustCreate(t, err)
	f.co2, err = app.acadSvc.CreateCourseOutcome(bg, academic.NewCourseOutcome{CourseID: "c1", Code: "CO2", Description: "Analyse"})
	mustCreate(t, err)

	exam, err := app.acadSvc.CreateExam(bg, academic.NewExam{CourseID: "c1", ExamType: academic.ExamInternal, ExamDate: time.Now()})
	mustCreate(t, err)
	f.q1, err = app.acadSvc.CreateQuestion(bg, academic.NewQuestion{ExamID: exam.ID, Text: "Q1", MaxMarks: 10, COID: f.co1.ID})
	mustCreate(t, err)
	f.q2, err = app.acadSvc.CreateQuestion(bg, academic.NewQuestion{ExamID: exam.ID, Text: "Q2", MaxMarks: 5, COID: f.co2.ID})
	mustCreate(t, err)

	for _, m := range []academic.NewStudentMarks{
		{StudentID: f.alice.ID, QuestionID: f.q1.ID, MarksObtained: marks(8.5)},
		{StudentID: f.alice.ID, QuestionID: f.q2.ID, MarksObtained: marks(5)},
		{StudentID: f.bob.ID, QuestionID: f.q1.ID, MarksObtained: marks(5)},
	} {
		_, err = app.acadSvc.CreateStudentMarks(bg, m)
		mustCreate(t, err)
	}
	return f
}

func Test_analyticsApi_studentCOAttainment(t *testing.T) {
	app := setup(t)
	f := newAnalyticsFixture(t, app)
	token := app.token(t, f.carol)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/api/analytics/student/" + f.alice.ID + "/co-attainment",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "any principal reads any student",
			method:   http.MethodGet,
			path:     "/api/analytics/student/" + f.alice.ID + "/co-attainment",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]attainment.COAttainment{
				f.co1.ID: {Code: "CO1", Description: "Design", AttainmentPercentage: 85, TotalMarks: 10, ObtainedMarks: 8.5},
				f.co2.ID: {Code: "CO2", Description: "Analyse", AttainmentPercentage: 100, TotalMarks: 5, ObtainedMarks: 5},
			}),
		},
		{
			name:     "no marks",
			method:   http.MethodGet,
			path:     "/api/analytics/student/" + f.carol.ID + "/co-attainment",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{}`),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("stale within ttl", func(t *testing.T) {
		path := "/api/analytics/student/" + f.bob.ID + "/co-attainment"
		stale := marchallObj(t, map[string]attainment.COAttainment{
			f.co1.ID: {Code: "CO1", Description: "Design", AttainmentPercentage: 50, TotalMarks: 10, ObtainedMarks: 5},
		})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: stale}, app.serve(http.MethodGet, path, token))

		_, err := app.acadSvc.CreateStudentMarks(bg, academic.NewStudentMarks{StudentID: f.bob.ID, QuestionID: f.q1.ID, MarksObtained: marks(3)})
		mustCreate(t, err)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: stale}, app.serve(http.MethodGet, path, token))

		// duplicate marks double count once the entry expires
		app.clock.Advance(time.Minute)
		fresh := marchallObj(t, map[string]attainment.COAttainment{
			f.co1.ID: {Code: "CO1", Description: "Design", AttainmentPercentage: 40, TotalMarks: 20, ObtainedMarks: 8},
		})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: fresh}, app.serve(http.MethodGet, path, token))
	})
}

func Test_analyticsApi_classCOAttainment(t *testing.T) {
	app := setup(t)
	f := newAnalyticsFixture(t, app)
	teacher := app.createUser(t, "Dave", "dave@test.edu", user.RoleTeacher, "c1")

	tests := []httpTest{
		{
			name:     "student is forbidden",
			method:   http.MethodGet,
			path:     "/api/analytics/course/c1/class-co-attainment",
			token:    app.token(t, f.alice),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Access denied. Required role: teacher"}),
		},
		{
			name:     "class averages exclude students without data",
			method:   http.MethodGet,
			path:     "/api/analytics/course/c1/class-co-attainment",
			token:    app.token(t, teacher),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]attainment.ClassCOAttainment{
				f.co1.ID: {
					Code:        "CO1",
					Description: "Design",
					StudentAttainments: []attainment.StudentAttainment{
						{StudentName: "Alice", AttainmentPercentage: 85},
						{StudentName: "Bob", AttainmentPercentage: 50},
					},
					ClassAverage: 67.5,
				},
				f.co2.ID: {
					Code:               "CO2",
					Description:        "Analyse",
					StudentAttainments: []attainment.StudentAttainment{{StudentName: "Alice", AttainmentPercentage: 100}},
					ClassAverage:       100,
				},
			}),
		},
		{
			name:     "course without students",
			method:   http.MethodGet,
			path:     "/api/analytics/course/c2/class-co-attainment",
			token:    app.token(t, teacher),
			wantCode: http.StatusOK,
			wantData: []byte(`{}`),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_reportsApi_studentPerformance(t *testing.T) {
	app := setup(t)
	f := newAnalyticsFixture(t, app)
	teacher := app.createUser(t, "Dave", "dave@test.edu", user.RoleTeacher)
	token := app.token(t, f.bob)

	notFound := marchallObj(t, httpErr{Error: "Student not found"})
	runHTTPTests(t, app, []httpTest{
		{
			name:     "unknown id",
			method:   http.MethodGet,
			path:     "/api/reports/student/nope/performance",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "id of a teacher",
			method:   http.MethodGet,
			path:     "/api/reports/student/" + teacher.ID + "/performance",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
	})

	t.Run("csv download", func(t *testing.T) {
		rec := app.serve(http.MethodGet, "/api/reports/student/"+f.alice.ID+"/performance", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=student_"+f.alice.ID+"_performance.csv", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "Student Performance Report\n"+
			"Student Name,Alice\n"+
			"Email,alice@test.edu\n"+
			"Semester,1\n"+
			"\n"+
			"CO Code,Description,Total Marks,Obtained Marks,Attainment %\n"+
			"CO1,Design,10,8.5,85\n"+
			"CO2,Analyse,5,5,100\n", rec.Body.String())
	})
}
