package identitydb

// UserRow is one row of the users table.
type UserRow struct {
	ID          uint   `gorm:"primaryKey"`
	Username    string `gorm:"column:username"`
	DisplayName string `gorm:"column:display_name"`
	Mail        string `gorm:"column:mail"`
	Visibility  string `gorm:"column:visibility"`
}

func (UserRow) TableName() string { return "users" }

// GroupRow is one row of the user_groups table.
type GroupRow struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"column:name"`
	DisplayName string `gorm:"column:display_name"`
	Description string `gorm:"column:description"`
	Visibility  string `gorm:"column:visibility"`
}

func (GroupRow) TableName() string { return "user_groups" }

// MembershipRow links a user to a group by name.
type MembershipRow struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"column:username"`
	GroupName string `gorm:"column:group_name"`
}

func (MembershipRow) TableName() string { return "memberships" }
