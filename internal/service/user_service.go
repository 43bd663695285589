package service

import (
	"context"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/model"
)

// UserService implements back-office user administration.
type UserService struct {
	users UserStore
	log   *logger.Logger
}

func NewUserService(users UserStore, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Discard()
	}
	return &UserService{users: users, log: log}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// ToggleBlock flips the blocked flag.  Managers may block customers
// only; nobody may block themselves.
func (s *UserService) ToggleBlock(ctx context.Context, actor Actor, targetID uint64) (*model.User, error) {
	if !CanBlockUsers(actor.Role) {
		return nil, ErrForbidden
	}
	if actor.ID == targetID {
		return nil, conflict(ReasonSelfAction)
	}
	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && u.Role != model.RoleCustomer {
		return nil, conflict(ReasonBlockPrivileged)
	}
	u.IsBlocked = !u.IsBlocked
	if err := s.users.SetBlocked(ctx, u.ID, u.IsBlocked); err != nil {
		return nil, err
	}
	s.log.Info("user block toggled", "user_id", u.ID, "blocked", u.IsBlocked, "by", actor.ID)
	return u, nil
}

// Promote turns a customer into a manager.  Admin only.
func (s *UserService) Promote(ctx context.Context, actor Actor, targetID uint64) (*model.User, error) {
	return s.changeRole(ctx, actor, targetID, model.RoleCustomer, model.RoleManager)
}

// Demote turns a manager back into a customer.  Admin only.
func (s *UserService) Demote(ctx context.Context, actor Actor, targetID uint64) (*model.User, error) {
	return s.changeRole(ctx, actor, targetID, model.RoleManager, model.RoleCustomer)
}

func (s *UserService) changeRole(ctx context.Context, actor Actor, targetID uint64, from, to string) (*model.User, error) {
	if !CanManageUsers(actor.Role) {
		return nil, ErrForbidden
	}
	if actor.ID == targetID {
		return nil, conflict(ReasonSelfAction)
	}
	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u.Role != from {
		return nil, conflict("User is not a " + from + ".")
	}
	if err := s.users.SetRole(ctx, u.ID, to); err != nil {
		return nil, err
	}
	u.Role = to
	s.log.Info("user role changed", "user_id", u.ID, "from", from, "to", to, "by", actor.ID)
	return u, nil
}
