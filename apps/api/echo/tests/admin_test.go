package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/copo/core/user"
)

func Test_adminApi_students(t *testing.T) {
	app := setup(t)
	admin := app.token(t, app.createUser(t, "Carol", "carol@test.edu", user.RoleAdmin))
	teacher := app.createUser(t, "Dave", "dave@test.edu", user.RoleTeacher)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/api/admin/students",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "teacher is forbidden",
			method:   http.MethodGet,
			path:     "/api/admin/students",
			token:    app.token(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Access denied. Required role: admin"}),
		},
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/api/admin/students",
			body:     []byte(`{"name":"Alice","email":"alice@test.edu","password":"Xk9#mPq2vL"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"roll_number": "this field is required",
				"semester":    "this field is required",
				"program_id":  "this field is required",
			}),
		},
		{
			name:     "email taken by the teacher",
			method:   http.MethodPost,
			path:     "/api/admin/students",
			body:     []byte(`{"name":"Alice","roll_number":"R1","email":"dave@test.edu","password":"Xk9#mPq2vL","semester":1,"program_id":"p1"}`),
			token:    admin,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "Email already registered"}),
		},
		{
			name:     "enroll unknown student",
			method:   http.MethodPost,
			path:     "/api/admin/students/" + teacher.ID + "/courses",
			body:     []byte(`{"course_id":"c1"}`),
			token:    admin,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
	})

	// cache admin:students (empty); a student create does not invalidate it
	rec := app.serve(http.MethodGet, "/api/admin/students", admin)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)

	rec = app.serve(http.MethodPost, "/api/admin/students", admin,
		[]byte(`{"name":"Alice","roll_number":"R1","email":"alice@test.edu","password":"Xk9#mPq2vL","semester":2,"program_id":"p1","course_ids":["c1"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var alice user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alice))
	assert.Equal(t, user.RoleStudent, alice.Role)
	assert.Equal(t, []string{"c1"}, alice.CourseIDs)
	assert.NotContains(t, rec.Body.String(), "password")

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@test.edu", sent[0].To[0].Address)

	rec = app.serve(http.MethodGet, "/api/admin/students", admin)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)

	app.clock.Advance(30 * time.Second)

	t.Run("enroll is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rec := app.serve(http.MethodPost, "/api/admin/students/"+alice.ID+"/courses", admin, []byte(`{"course_id":"c2"}`))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		usr, err := app.usrRepo.GetUser(bg, user.GetFilter{ID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2"}, usr.CourseIDs)

		rec := app.serve(http.MethodGet, "/api/admin/students", admin)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, usr)}, rec)
	})
}

func Test_adminApi_teachers(t *testing.T) {
	app := setup(t)
	admin := app.token(t, app.createUser(t, "Carol", "carol@test.edu", user.RoleAdmin))

	rec := app.serve(http.MethodGet, "/api/admin/teachers", admin)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)

	// a teacher create invalidates admin:teachers
	rec = app.serve(http.MethodPost, "/api/admin/teachers", admin,
		[]byte(`{"name":"Dave","email":"dave@test.edu","password":"Xk9#mPq2vL","assigned_courses":["c1"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dave user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dave))
	assert.Equal(t, user.RoleTeacher, dave.Role)

	rec = app.serve(http.MethodGet, "/api/admin/teachers", admin)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, dave)}, rec)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "password similar to the name",
			method:   http.MethodPost,
			path:     "/api/admin/teachers",
			body:     []byte(`{"name":"Evangeline","email":"eve@test.edu","password":"evangeline1"}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password cannot be similar to user attributes"}),
		},
		{
			name:     "assign course",
			method:   http.MethodPost,
			path:     "/api/admin/teachers/" + dave.ID + "/courses",
			body:     []byte(`{"course_id":"c2"}`),
			token:    admin,
			wantCode: http.StatusOK,
		},
		{
			name:     "assign to a non-teacher",
			method:   http.MethodPost,
			path:     "/api/admin/teachers/nope/courses",
			body:     []byte(`{"course_id":"c2"}`),
			token:    admin,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing course",
			method:   http.MethodPost,
			path:     "/api/admin/teachers/" + dave.ID + "/courses",
			body:     []byte(`{}`),
			token:    admin,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"course_id": "this field is required"}),
		},
	})

	usr, err := app.usrRepo.GetUser(bg, user.GetFilter{ID: dave.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, usr.AssignedCourses)
}
