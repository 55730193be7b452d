package platform

import (
	"context"

	"principal-sync/core/model"
	"principal-sync/core/platform"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// applier translates plan chunks into bulk sync and deletion calls.
type applier struct {
	client          platform.Client
	desired         *model.Snapshot
	current         *model.Snapshot
	updatePasswords bool
	log             *zap.Logger
}

// Apply sends one chunk. Creates, updates, and membership sets become one
// bulk sync request; deletes become by-name deletion calls. The chunk's
// snapshot is made self-contained by pulling in every group its users
// reference.
func (a *applier) Apply(ctx context.Context, changes []sync.Change) ([]sync.EntityError, error) {
	batch := model.NewSnapshot()
	var deleteUsers, deleteGroups []string
	var passwordOps []sync.Change

	for _, c := range changes {
		switch c.Op {
		case sync.OpCreateGroup, sync.OpUpdateGroup:
			if err := batch.AddGroup(c.Group.Clone(), model.DuplicateOverwrite); err != nil {
				return nil, err
			}
		case sync.OpCreateUser, sync.OpUpdateUser:
			if err := batch.AddUser(c.User.Clone(), model.DuplicateOverwrite); err != nil {
				return nil, err
			}
			if a.updatePasswords && c.User.Password != "" {
				passwordOps = append(passwordOps, c)
			}
		case sync.OpSetMembership:
			u := batch.User(c.Name)
			if u == nil {
				// Membership-only change: carry the full desired user so the
				// bulk sync does not blank other attributes.
				u = a.resolveUser(c.Name)
				if err := batch.AddUser(u, model.DuplicateOverwrite); err != nil {
					return nil, err
				}
			}
			u.GroupNames = append([]string(nil), c.Members...)
		case sync.OpDeleteUser:
			deleteUsers = append(deleteUsers, c.Name)
		case sync.OpDeleteGroup:
			deleteGroups = append(deleteGroups, c.Name)
		}
	}

	a.completeGroups(batch)

	if batch.UserCount() > 0 || batch.GroupCount() > 0 {
		if _, err := a.client.SyncPrincipals(ctx, batch, true, false); err != nil {
			return nil, err
		}
	}

	var entityErrs []sync.EntityError
	for _, c := range passwordOps {
		if err := a.client.UpdateUserPassword(ctx, c.Name, c.User.Password); err != nil {
			a.log.Warn("Password update failed", zap.String("name", c.Name), zap.Error(err))
			entityErrs = append(entityErrs, sync.EntityError{Op: c.Op, Name: c.Name, Message: err.Error()})
		}
	}

	if len(deleteUsers) > 0 {
		if err := a.client.DeleteUsers(ctx, deleteUsers); err != nil {
			return nil, err
		}
	}
	if len(deleteGroups) > 0 {
		if err := a.client.DeleteGroups(ctx, deleteGroups); err != nil {
			return nil, err
		}
	}

	return entityErrs, nil
}

func (a *applier) resolveUser(name string) *model.User {
	if u := a.desired.User(name); u != nil {
		return u.Clone()
	}
	if u := a.current.User(name); u != nil {
		return u.Clone()
	}
	return model.NewUser(name)
}

// completeGroups pulls every group referenced by the batch into the batch,
// transitively, so the sync request validates standalone.
func (a *applier) completeGroups(batch *model.Snapshot) {
	var need []string
	for _, u := range batch.Users() {
		need = append(need, u.GroupNames...)
	}
	for _, g := range batch.Groups() {
		need = append(need, g.GroupNames...)
	}

	for len(need) > 0 {
		name := need[0]
		need = need[1:]
		if batch.HasGroup(name) {
			continue
		}
		g := a.resolveGroup(name)
		_ = batch.AddGroup(g, model.DuplicateIgnore)
		need = append(need, g.GroupNames...)
	}
}

func (a *applier) resolveGroup(name string) *model.Group {
	if g := a.desired.Group(name); g != nil {
		return g.Clone()
	}
	if g := a.current.Group(name); g != nil {
		return g.Clone()
	}
	return model.NewGroup(name)
}
