package fakeuserrepo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepo for tests. It mirrors the store's
// conditional-update semantics: SwapRefreshToken fails when the old token is
// gone, so refresh races resolve to exactly one winner.
type FakeUserRepo struct {
	users     map[string]*users.User
	usernames map[string]string // username to user id
	lock      sync.Mutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]*users.User),
		usernames: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.usernames[user.Username]; ok {
		return errors.ErrConflict
	}
	for _, u := range ur.users {
		if u.Email == user.Email {
			return errors.ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	cp := *user
	ur.users[cp.ID] = &cp
	ur.usernames[cp.Username] = cp.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.usernames[username]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) GetByRefreshToken(_ context.Context, token string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	for id, u := range ur.users {
		if u.HasRefreshToken(token) {
			return ur.copyOf(id)
		}
	}
	return nil, errors.ErrNotFound
}

func (ur *FakeUserRepo) UpdateProfile(_ context.Context, id string, update users.ProfileUpdate) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if update.Username != nil {
		delete(ur.usernames, u.Username)
		u.Username = users.NormalizeUsername(*update.Username)
		ur.usernames[u.Username] = id
	}
	if update.Desc != nil {
		u.Desc = *update.Desc
	}
	if update.City != nil {
		u.City = *update.City
	}
	if update.Country != nil {
		u.Country = *update.Country
	}
	if update.DOB != nil {
		u.DOB = update.DOB
	}
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	delete(ur.usernames, u.Username)
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) AddRefreshToken(_ context.Context, id string, token string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	return nil
}

func (ur *FakeUserRepo) RemoveRefreshToken(_ context.Context, id string, token string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	u.RefreshTokens = without(u.RefreshTokens, token)
	return nil
}

func (ur *FakeUserRepo) SwapRefreshToken(_ context.Context, id string, oldToken, newToken string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	for i, rt := range u.RefreshTokens {
		if rt == oldToken {
			u.RefreshTokens[i] = newToken
			return nil
		}
	}
	return errors.ErrNotFound
}

func (ur *FakeUserRepo) RotateRefreshTokens(_ context.Context, id string, dropToken string, clearAll bool, newToken string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	if clearAll {
		u.RefreshTokens = nil
	} else if dropToken != "" {
		u.RefreshTokens = without(u.RefreshTokens, dropToken)
	}
	u.RefreshTokens = append(u.RefreshTokens, newToken)
	return nil
}

func (ur *FakeUserRepo) ClearRefreshTokens(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	u.RefreshTokens = nil
	return nil
}

func (ur *FakeUserRepo) Follow(_ context.Context, userID, targetID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[userID]
	if !ok {
		return errors.ErrNotFound
	}
	t, ok := ur.users[targetID]
	if !ok {
		return errors.ErrNotFound
	}
	u.Following = append(u.Following, targetID)
	t.Followers = append(t.Followers, userID)
	return nil
}

func (ur *FakeUserRepo) Unfollow(_ context.Context, userID, targetID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[userID]
	if !ok {
		return errors.ErrNotFound
	}
	t, ok := ur.users[targetID]
	if !ok {
		return errors.ErrNotFound
	}
	u.Following = without(u.Following, targetID)
	t.Followers = without(t.Followers, userID)
	return nil
}

func (ur *FakeUserRepo) copyOf(id string) (*users.User, error) {
	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *u
	cp.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	cp.Followers = append([]string(nil), u.Followers...)
	cp.Following = append([]string(nil), u.Following...)
	return &cp, nil
}

func without(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
