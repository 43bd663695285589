package service

import "github.com/iliyamo/desert-paths/internal/model"

// Authorization policies are checks against the caller's single role.

func CanManageContent(role string) bool { return role == model.RoleAdmin || role == model.RoleManager }

func CanDeleteContent(role string) bool { return role == model.RoleAdmin }

func CanManageUsers(role string) bool { return role == model.RoleAdmin }

func CanBlockUsers(role string) bool { return role == model.RoleAdmin || role == model.RoleManager }

// Actor is the authenticated caller of a back-office action.
type Actor struct {
	ID   uint64
	Role string
}
