package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/copo/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

// User is any principal of the system: admin, teacher or student.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC

	// Student
	RollNumber string   `json:"roll_number,omitempty"`
	Semester   int      `json:"semester,omitempty"`
	ProgramID  string   `json:"program_id,omitempty"`
	CourseIDs  []string `json:"course_ids,omitempty"`

	// Teacher
	AssignedCourses []string `json:"assigned_courses,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasRole is an exact match: an admin does not hold the teacher role.
func (u *User) HasRole(role string) bool {
	return u.Role == role
}

func (u *User) IsAdmin() bool   { return u.HasRole(RoleAdmin) }
func (u *User) IsStudent() bool { return u.HasRole(RoleStudent) }

// NewUser contains information needed to self-register a new User.
type NewUser struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,role"`
	Semester  int    `json:"semester" validate:"omitempty,min=1"`
	ProgramID string `json:"program_id"`
}

func (nu *NewUser) Validate(validate structValidator) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.ProgramID = core.CleanString(nu.ProgramID)
	return validate.Struct(nu)
}

// NewStudent contains information needed by an admin to create a student.
type NewStudent struct {
	Name       string   `json:"name" validate:"required"`
	RollNumber string   `json:"roll_number" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required"`
	Semester   int      `json:"semester" validate:"required,min=1"`
	ProgramID  string   `json:"program_id" validate:"required"`
	CourseIDs  []string `json:"course_ids" validate:"omitempty,dive,required"`
}

func (ns *NewStudent) Validate(validate structValidator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ProgramID = core.CleanString(ns.ProgramID)
	return validate.Struct(ns)
}

// NewTeacher contains information needed by an admin to create a teacher.
type NewTeacher struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	AssignedCourses []string `json:"assigned_courses" validate:"omitempty,dive,required"`
}

func (nt *NewTeacher) Validate(validate structValidator) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return validate.Struct(nt)
}

// CourseAssignment enrolls a student in, or assigns a teacher to, a course.
type CourseAssignment struct {
	CourseID string `json:"course_id" validate:"required"`
}

func (ca *CourseAssignment) Validate(validate structValidator) error {
	ca.CourseID = core.CleanString(ca.CourseID)
	return validate.Struct(ca)
}

// structValidator is satisfied by *validator.Validate.
type structValidator interface {
	Struct(s interface{}) error
}
