package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/cache"
	"github.com/trezcool/copo/core/report"
	"github.com/trezcool/copo/core/user"
)

const mimeTextCSV = "text/csv"

func studentAttainmentKey(studentID string) string {
	return cache.Key("analytics", "student_"+studentID)
}

func classAttainmentKey(courseID string) string {
	return cache.Key("analytics", "class_"+courseID)
}

// Any authenticated principal may read any student's analytics & report.
func (s *Server) registerAnalyticsAPI(g *echo.Group, authenticated []echo.MiddlewareFunc) {
	teacher := append(authenticated[:len(authenticated):len(authenticated)], requireRole(user.RoleTeacher))

	g.GET("/analytics/student/:id/co-attainment", s.studentCOAttainment, authenticated...)
	g.GET("/analytics/course/:id/class-co-attainment", s.classCOAttainment, teacher...)
	g.GET("/reports/student/:id/performance", s.studentPerformanceReport, authenticated...)
}

func (s *Server) studentCOAttainment(ctx echo.Context) error {
	studentID := ctx.Param("id")
	return s.cached(ctx, studentAttainmentKey(studentID), s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		att, err := s.deps.AttainmentSvc.StudentCOAttainment(ctx.Request().Context(), studentID)
		return att, errors.Wrap(err, "computing student co attainment")
	})
}

func (s *Server) classCOAttainment(ctx echo.Context) error {
	courseID := ctx.Param("id")
	return s.cached(ctx, classAttainmentKey(courseID), s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		att, err := s.deps.AttainmentSvc.ClassCOAttainment(ctx.Request().Context(), courseID)
		return att, errors.Wrap(err, "computing class co attainment")
	})
}

func (s *Server) studentPerformanceReport(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	student, err := s.deps.UserSvc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "finding student")
	}
	if !student.IsStudent() {
		return errStudentNotFound
	}

	att, err := s.deps.AttainmentSvc.StudentCOAttainment(rctx, student.ID)
	if err != nil {
		return errors.Wrap(err, "computing student co attainment")
	}

	perf := report.Performance{Student: student, Attainment: att}
	var buf bytes.Buffer
	if err = perf.WriteCSV(&buf); err != nil {
		return errors.Wrap(err, "writing performance report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", perf.Filename()))
	return ctx.Blob(http.StatusOK, mimeTextCSV, buf.Bytes())
}
