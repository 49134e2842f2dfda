package memstore

import (
	"context"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/google/uuid"
)

type UserRepository struct {
	h *Handle
}

// Users returns a users.Repository bound to db.
func (s *Store) Users(db dbx.DBTX) *UserRepository {
	return &UserRepository{h: s.handleFor(db)}
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.h.readOnly {
		return nil, errReadOnly
	}
	defer r.h.lock()()
	s := r.h.store

	if _, ok := s.byUserName[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	s.users[user.ID] = clone(user)
	s.byUserName[user.UserName] = user.ID
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.h.rlock()()

	u, ok := r.h.store.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.h.rlock()()
	s := r.h.store

	id, ok := s.byUserName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(s.users[id]), nil
}

func (r *UserRepository) GetByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.h.rlock()()
	s := r.h.store

	if id, ok := s.byUserName[userName]; ok {
		return clone(s.users[id]), nil
	}
	if id, ok := s.byEmail[email]; ok {
		return clone(s.users[id]), nil
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.h.readOnly {
		return nil, errReadOnly
	}
	defer r.h.lock()()
	s := r.h.store

	cur, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Empty() {
		return clone(cur), nil
	}
	u := clone(cur)

	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := s.byEmail[*upd.Email]; taken {
			return nil, common.ErrorAlreadyExists
		}
		delete(s.byEmail, u.Email)
		u.Email = *upd.Email
		s.byEmail[u.Email] = id
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.CoverImage != nil {
		u.CoverImage = *upd.CoverImage
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = s.now().UTC()

	s.users[id] = u
	return clone(u), nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.h.readOnly {
		return errReadOnly
	}
	defer r.h.lock()()
	s := r.h.store

	cur, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u := clone(cur)
	u.RefreshToken = token
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return nil
}

func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if expected == "" {
		return false, nil
	}
	if r.h.readOnly {
		return false, errReadOnly
	}
	defer r.h.lock()()
	s := r.h.store

	cur, ok := s.users[id]
	if !ok || cur.RefreshToken != expected {
		return false, nil
	}
	u := clone(cur)
	u.RefreshToken = next
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return true, nil
}
