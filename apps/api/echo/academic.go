package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/academic"
	"github.com/trezcool/copo/core/cache"
	"github.com/trezcool/copo/core/user"
)

var (
	programsKey        = cache.Key("programs", "all")
	coursesKey         = cache.Key("courses", "all")
	programOutcomesKey = cache.Key("program_outcomes", "all")
)

func coursesByProgramKey(programID string) string {
	return cache.Key("courses", "program_"+programID)
}

func (s *Server) registerAcademicAPI(g *echo.Group, authenticated []echo.MiddlewareFunc) {
	admin := append(authenticated[:len(authenticated):len(authenticated)], requireRole(user.RoleAdmin))
	teacher := append(authenticated[:len(authenticated):len(authenticated)], requireRole(user.RoleTeacher))

	g.POST("/programs", s.programCreate, admin...)
	g.GET("/programs", s.programQuery, authenticated...)

	g.POST("/courses", s.courseCreate, admin...)
	g.GET("/courses", s.courseQuery, authenticated...)
	g.GET("/courses/program/:id", s.courseQueryByProgram, authenticated...)

	g.POST("/course-outcomes", s.courseOutcomeCreate, teacher...)
	g.GET("/course-outcomes/course/:id", s.courseOutcomeQuery, authenticated...)

	g.POST("/program-outcomes", s.programOutcomeCreate, admin...)
	g.GET("/program-outcomes", s.programOutcomeQuery, authenticated...)

	g.POST("/co-po-map", s.coPOMapCreate, teacher...)
	g.GET("/co-po-map/co/:id", s.coPOMapQuery, authenticated...)

	g.POST("/exams", s.examCreate, teacher...)
	g.GET("/exams/course/:id", s.examQuery, authenticated...)

	g.POST("/questions", s.questionCreate, teacher...)
	g.GET("/questions/exam/:id", s.questionQuery, authenticated...)

	g.POST("/student-marks", s.studentMarksCreate, teacher...)
	g.GET("/student-marks/student/:id", s.studentMarksQuery, authenticated...)
}

func (s *Server) programCreate(ctx echo.Context) error {
	var data academic.NewProgram
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	p, err := s.deps.AcademicSvc.CreateProgram(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) programQuery(ctx echo.Context) error {
	return s.cached(ctx, programsKey, s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		programs, err := s.deps.AcademicSvc.QueryPrograms(ctx.Request().Context())
		return programs, errors.Wrap(err, "querying programs")
	})
}

func (s *Server) courseCreate(ctx echo.Context) error {
	var data academic.NewCourse
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	c, err := s.deps.AcademicSvc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (s *Server) courseQuery(ctx echo.Context) error {
	return s.cached(ctx, coursesKey, s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		courses, err := s.deps.AcademicSvc.QueryCourses(ctx.Request().Context())
		return courses, errors.Wrap(err, "querying courses")
	})
}

func (s *Server) courseQueryByProgram(ctx echo.Context) error {
	programID := ctx.Param("id")
	return s.cached(ctx, coursesByProgramKey(programID), s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		courses, err := s.deps.AcademicSvc.QueryCoursesByProgram(ctx.Request().Context(), programID)
		return courses, errors.Wrap(err, "querying courses by program")
	})
}

func (s *Server) courseOutcomeCreate(ctx echo.Context) error {
	var data academic.NewCourseOutcome
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	co, err := s.deps.AcademicSvc.CreateCourseOutcome(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course outcome")
	}
	return ctx.JSON(http.StatusOK, co)
}

func (s *Server) courseOutcomeQuery(ctx echo.Context) error {
	cos, err := s.deps.AcademicSvc.QueryCourseOutcomes(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course outcomes")
	}
	return ctx.JSON(http.StatusOK, cos)
}

func (s *Server) programOutcomeCreate(ctx echo.Context) error {
	var data academic.NewProgramOutcome
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	po, err := s.deps.AcademicSvc.CreateProgramOutcome(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program outcome")
	}
	s.deps.Cache.Invalidate(programOutcomesKey)
	return ctx.JSON(http.StatusOK, po)
}

func (s *Server) programOutcomeQuery(ctx echo.Context) error {
	return s.cached(ctx, programOutcomesKey, s.deps.Conf.Cache.ListTTL, func() (interface{}, error) {
		pos, err := s.deps.AcademicSvc.QueryProgramOutcomes(ctx.Request().Context())
		return pos, errors.Wrap(err, "querying program outcomes")
	})
}

func (s *Server) coPOMapCreate(ctx echo.Context) error {
	var data academic.NewCOPOMap
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	m, err := s.deps.AcademicSvc.CreateCOPOMap(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating co-po mapping")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (s *Server) coPOMapQuery(ctx echo.Context) error {
	maps, err := s.deps.AcademicSvc.QueryCOPOMaps(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying co-po mappings")
	}
	return ctx.JSON(http.StatusOK, maps)
}

func (s *Server) examCreate(ctx echo.Context) error {
	var data academic.NewExam
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	e, err := s.deps.AcademicSvc.CreateExam(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (s *Server) examQuery(ctx echo.Context) error {
	exams, err := s.deps.AcademicSvc.QueryExams(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (s *Server) questionCreate(ctx echo.Context) error {
	var data academic.NewQuestion
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	q, err := s.deps.AcademicSvc.CreateQuestion(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (s *Server) questionQuery(ctx echo.Context) error {
	questions, err := s.deps.AcademicSvc.QueryQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (s *Server) studentMarksCreate(ctx echo.Context) error {
	var data academic.NewStudentMarks
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	m, err := s.deps.AcademicSvc.CreateStudentMarks(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording student marks")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (s *Server) studentMarksQuery(ctx echo.Context) error {
	marks, err := s.deps.AcademicSvc.QueryStudentMarks(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}
