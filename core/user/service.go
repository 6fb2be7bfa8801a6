package user

import (
	"context"
	"net/mail"
	"sync"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("Email already registered")
	ErrInvalidCredentials = errors.New("Incorrect email or password")

	welcomeTmpl = texttmpl.Must(texttmpl.New("welcome").Parse(
		`Hello {{.Data.Name}},

An account has been created for you on {{.AppName}} as a {{.Data.Role}}.
Sign in at {{.FrontendBaseURL}} with this email address: {{.Data.Email}}.
`))
)

type (
	// GetFilter selects a single user; the first set field wins.
	GetFilter struct {
		ID    string
		Email string
	}

	// QueryFilter applies AND operation on set fields.
	QueryFilter struct {
		Role     string
		CourseID string // students enrolled in / teachers assigned to the course
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService

		// serializes the email uniqueness check with the insert;
		// the document store has no unique index.
		createMu sync.Mutex
		// serializes read-modify-write cycles on stored principals.
		updateMu sync.Mutex
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) create(ctx context.Context, usr User, pwd string) (User, error) {
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	usr.CreatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	svc.createMu.Lock()
	defer svc.createMu.Unlock()

	if err := svc.repo.CheckEmailUniqueness(ctx, usr.Email); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Register creates a principal with any role. The email must not be used by any other principal.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	return svc.create(ctx, User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Semester:  nu.Semester,
		ProgramID: nu.ProgramID,
	}, nu.Password)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (User, error) {
	usr, err := svc.create(ctx, User{
		Name:       ns.Name,
		Email:      ns.Email,
		Role:       RoleStudent,
		RollNumber: ns.RollNumber,
		Semester:   ns.Semester,
		ProgramID:  ns.ProgramID,
		CourseIDs:  ns.CourseIDs,
	}, ns.Password)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (User, error) {
	usr, err := svc.create(ctx, User{
		Name:            nt.Name,
		Email:           nt.Email,
		Role:            RoleTeacher,
		AssignedCourses: nt.AssignedCourses,
	}, nt.Password)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

// Authenticate returns the user matching the credentials or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) QueryByRole(ctx context.Context, role string) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: role})
}

// QueryStudentsByCourse returns the students enrolled in the course.
func (svc *Service) QueryStudentsByCourse(ctx context.Context, courseID string) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleStudent, CourseID: courseID})
}

// EnrollStudent adds the course to the student's enrollments; enrolling twice is a no-op.
func (svc *Service) EnrollStudent(ctx context.Context, studentID, courseID string) (User, error) {
	return svc.update(ctx, studentID, RoleStudent, func(usr *User) {
		usr.CourseIDs = core.AppendUnique(usr.CourseIDs, courseID)
	})
}

// AssignTeacher adds the course to the teacher's assigned courses; assigning twice is a no-op.
func (svc *Service) AssignTeacher(ctx context.Context, teacherID, courseID string) (User, error) {
	return svc.update(ctx, teacherID, RoleTeacher, func(usr *User) {
		usr.AssignedCourses = core.AppendUnique(usr.AssignedCourses, courseID)
	})
}

// ResetPassword sets a new password without applying the password policy (admin only).
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) (User, error) {
	svc.updateMu.Lock()
	defer svc.updateMu.Unlock()

	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Promote creates an admin or turns an existing principal into one.
func (svc *Service) Promote(ctx context.Context, name, email, pwd string) (User, error) {
	svc.updateMu.Lock()
	defer svc.updateMu.Unlock()

	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, err
		}
		return svc.create(ctx, User{Name: name, Email: email, Role: RoleAdmin}, pwd)
	}
	usr.Role = RoleAdmin
	if name != "" {
		usr.Name = name
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// update applies change to the principal holding role and stores it.
func (svc *Service) update(ctx context.Context, id, role string, change func(usr *User)) (User, error) {
	svc.updateMu.Lock()
	defer svc.updateMu.Unlock()

	usr, err := svc.getWithRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	change(&usr)
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) getWithRole(ctx context.Context, id, role string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !usr.HasRole(role) {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your account is ready",
		Template:     welcomeTmpl,
		TemplateData: usr,
	})
}
