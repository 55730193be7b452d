package spreadsheet

// Sheet and column names shared by the reader and writer.
const (
	SheetUsers  = "Users"
	SheetGroups = "Groups"

	colName        = "Name"
	colPassword    = "Password"
	colDisplayName = "Display Name"
	colEmail       = "Email"
	colDescription = "Description"
	colGroups      = "Groups"
	colVisibility  = "Visibility"
	colPrivileges  = "Privileges"
)

var userColumns = []string{colName, colPassword, colDisplayName, colEmail, colGroups, colVisibility}

var groupColumns = []string{colName, colDisplayName, colDescription, colGroups, colVisibility, colPrivileges}
