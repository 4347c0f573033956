package file

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/anilrana004/Workline/pkg/models"
	"github.com/anilrana004/Workline/pkg/persistence"
)

// UserRepository handles directory records under root/users.
type UserRepository struct {
	root string
}

func (ur *UserRepository) dir() string {
	return filepath.Join(ur.root, "users")
}

func (ur *UserRepository) path(id string) string {
	return filepath.Join(ur.dir(), id+".json")
}

func (ur *UserRepository) UserByID(_ context.Context, id string) (*models.User, error) {
	var user models.User

	err := readJSON(ur.path(id), &user)
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("UserByID", id, persistence.ErrUserNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("UserByID", id, err)
	}

	return &user, nil
}

func (ur *UserRepository) UsersByRoles(ctx context.Context, roles []string) ([]*models.User, error) {
	return ur.usersMatching(ctx, func(user *models.User) bool {
		return slices.Contains(roles, user.Role)
	})
}

func (ur *UserRepository) UsersByDepartments(ctx context.Context, departments []string) ([]*models.User, error) {
	return ur.usersMatching(ctx, func(user *models.User) bool {
		return slices.Contains(departments, user.Department)
	})
}

func (ur *UserRepository) SaveUser(_ context.Context, user *models.User) error {
	if err := writeJSON(ur.path(user.ID), user); err != nil {
		return persistence.NewStoreError("SaveUser", user.ID, err)
	}

	return nil
}

func (ur *UserRepository) usersMatching(ctx context.Context, match func(*models.User) bool) ([]*models.User, error) {
	ids, err := listJSON(ur.dir())
	if err != nil {
		return nil, persistence.NewStoreError("UsersMatching", "", err)
	}

	users := make([]*models.User, 0)

	for _, id := range ids {
		user, err := ur.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if match(user) {
			users = append(users, user)
		}
	}

	slices.SortFunc(users, func(a, b *models.User) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return users, nil
}
