package identitydb

import (
	"context"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reader loads the desired snapshot from the identity database.
type Reader struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewReader creates an identity database reader over an open connection.
func NewReader(db *gorm.DB, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{db: db, log: log}
}

func (r *Reader) Name() string { return "identitydb" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	// The connection comes from the database section of the configuration,
	// not from per-run options.
	return nil
}

func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	if r.db == nil {
		return nil, serrors.NewSourceUnavailable(r.Name(), gorm.ErrInvalidDB)
	}
	db := r.db.WithContext(ctx)

	var groupRows []GroupRow
	if err := db.Order("id").Find(&groupRows).Error; err != nil {
		return nil, serrors.NewSourceUnavailable(r.Name(), err)
	}

	var userRows []UserRow
	if err := db.Order("id").Find(&userRows).Error; err != nil {
		return nil, serrors.NewSourceUnavailable(r.Name(), err)
	}

	var membershipRows []MembershipRow
	if err := db.Order("id").Find(&membershipRows).Error; err != nil {
		return nil, serrors.NewSourceUnavailable(r.Name(), err)
	}

	snap := model.NewSnapshot()

	for _, row := range groupRows {
		g := model.NewGroup(row.Name)
		if row.DisplayName != "" {
			g.DisplayName = row.DisplayName
		}
		g.Description = row.Description
		if row.Visibility != "" {
			g.Visibility = model.Visibility(row.Visibility)
		}
		if err := snap.AddGroup(g, model.DuplicateError); err != nil {
			return nil, serrors.NewSourceFormat(r.Name(), "user_groups table", err)
		}
	}

	for _, row := range userRows {
		u := model.NewUser(row.Username)
		if row.DisplayName != "" {
			u.DisplayName = row.DisplayName
		}
		u.Email = row.Mail
		if row.Visibility != "" {
			u.Visibility = model.Visibility(row.Visibility)
		}
		if err := snap.AddUser(u, model.DuplicateError); err != nil {
			return nil, serrors.NewSourceFormat(r.Name(), "users table", err)
		}
	}

	for _, row := range membershipRows {
		u := snap.User(row.Username)
		if u == nil {
			return nil, serrors.NewUnresolvedReference(row.Username, "user", row.GroupName)
		}
		if !snap.HasGroup(row.GroupName) {
			return nil, serrors.NewUnresolvedReference(row.Username, "user", row.GroupName)
		}
		u.AddGroup(row.GroupName)
	}

	r.log.Info("Read principals from identity database",
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
		zap.Int("memberships", len(membershipRows)),
	)
	return snap, nil
}
