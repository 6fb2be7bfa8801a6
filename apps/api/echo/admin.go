package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/cache"
	"github.com/trezcool/copo/core/user"
)

var (
	adminStudentsKey = cache.Key("admin", "students")
	adminTeachersKey = cache.Key("admin", "teachers")
)

func (s *Server) registerAdminAPI(g *echo.Group) {
	g.POST("/students", s.studentCreate)
	g.GET("/students", s.studentQuery)
	g.POST("/students/:id/courses", s.studentEnroll)

	g.POST("/teachers", s.teacherCreate)
	g.GET("/teachers", s.teacherQuery)
	g.POST("/teachers/:id/courses", s.teacherAssign)
}

func (s *Server) studentCreate(ctx echo.Context) error {
	var data user.NewStudent
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) studentQuery(ctx echo.Context) error {
	return s.cached(ctx, adminStudentsKey, s.deps.Conf.Cache.AdminTTL, func() (interface{}, error) {
		students, err := s.deps.UserSvc.QueryByRole(ctx.Request().Context(), user.RoleStudent)
		return students, errors.Wrap(err, "querying students")
	})
}

func (s *Server) studentEnroll(ctx echo.Context) error {
	var data user.CourseAssignment
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.EnrollStudent(ctx.Request().Context(), ctx.Param("id"), data.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) teacherCreate(ctx echo.Context) error {
	var data user.NewTeacher
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	s.deps.Cache.Invalidate(adminTeachersKey)
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) teacherQuery(ctx echo.Context) error {
	return s.cached(ctx, adminTeachersKey, s.deps.Conf.Cache.AdminTTL, func() (interface{}, error) {
		teachers, err := s.deps.UserSvc.QueryByRole(ctx.Request().Context(), user.RoleTeacher)
		return teachers, errors.Wrap(err, "querying teachers")
	})
}

func (s *Server) teacherAssign(ctx echo.Context) error {
	var data user.CourseAssignment
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.AssignTeacher(ctx.Request().Context(), ctx.Param("id"), data.CourseID)
	if err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusOK, usr)
}
