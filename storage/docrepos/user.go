// Package docrepos implements the domain repositories on top of a docstore.Store.
package docrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core/user"
	"github.com/trezcool/copo/storage/docstore"
)

const collUsers = "users"

// userDoc is the stored form of a user.User; unlike the API form it keeps the password hash.
type userDoc struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	PasswordHash    []byte    `json:"password_hash"`
	CreatedAt       time.Time `json:"created_at"`
	RollNumber      string    `json:"roll_number,omitempty"`
	Semester        int       `json:"semester,omitempty"`
	ProgramID       string    `json:"program_id,omitempty"`
	CourseIDs       []string  `json:"course_ids"`
	AssignedCourses []string  `json:"assigned_courses"`
}

type userRepository struct {
	store docstore.Store
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(store docstore.Store) *userRepository {
	return &userRepository{store: store}
}

func (repo userRepository) boil(usr user.User) userDoc {
	return userDoc{
		ID:              usr.ID,
		Name:            usr.Name,
		Email:           usr.Email,
		Role:            usr.Role,
		PasswordHash:    usr.PasswordHash,
		CreatedAt:       usr.CreatedAt.UTC(),
		RollNumber:      usr.RollNumber,
		Semester:        usr.Semester,
		ProgramID:       usr.ProgramID,
		CourseIDs:       usr.CourseIDs,
		AssignedCourses: usr.AssignedCourses,
	}
}

func (repo userRepository) unboil(doc userDoc) user.User {
	return user.User{
		ID:              doc.ID,
		Name:            doc.Name,
		Email:           doc.Email,
		Role:            doc.Role,
		PasswordHash:    doc.PasswordHash,
		CreatedAt:       doc.CreatedAt,
		RollNumber:      doc.RollNumber,
		Semester:        doc.Semester,
		ProgramID:       doc.ProgramID,
		CourseIDs:       doc.CourseIDs,
		AssignedCourses: doc.AssignedCourses,
	}
}

func (repo userRepository) unboilSlice(docs []userDoc) []user.User {
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, repo.unboil(d))
	}
	return users
}

// trapNotFoundErr maps docstore.ErrNotFound to user.ErrNotFound
func (repo userRepository) trapNotFoundErr(err error, msg string) error {
	if errors.Cause(err) == docstore.ErrNotFound {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var doc userDoc
	err := repo.store.FindOne(ctx, collUsers, &doc, docstore.Eq("email", email))
	switch errors.Cause(err) {
	case nil:
		return user.ErrEmailExists
	case docstore.ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	doc := repo.boil(usr)
	if err := repo.store.Insert(ctx, collUsers, doc.ID, doc); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unboil(doc), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var doc userDoc
	var err error

	switch {
	case filter.ID != "":
		err = repo.store.Get(ctx, collUsers, filter.ID, &doc)
	case filter.Email != "":
		err = repo.store.FindOne(ctx, collUsers, &doc, docstore.Eq("email", filter.Email))
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, repo.trapNotFoundErr(err, "finding user")
	}
	return repo.unboil(doc), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var filters []docstore.Filter
	if filter.Role != "" {
		filters = append(filters, docstore.Eq("role", filter.Role))
	}
	if filter.CourseID != "" {
		field := "course_ids"
		if filter.Role == user.RoleTeacher {
			field = "assigned_courses"
		}
		filters = append(filters, docstore.Contains(field, filter.CourseID))
	}

	var docs []userDoc
	if err := repo.store.Find(ctx, collUsers, &docs, filters...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unboilSlice(docs), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	doc := repo.boil(usr)
	if err := repo.store.Put(ctx, collUsers, doc.ID, doc); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return repo.unboil(doc), nil
}
