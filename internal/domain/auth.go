package domain

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAgent, StaffRoleTeamLead, StaffRoleAdmin:
		return true
	}
	return false
}

// SubjectType identifies who performed an action.
type SubjectType string

const (
	SubjectTypeStaff  SubjectType = "STAFF"
	// SubjectTypeSystem marks background jobs; tokens are never issued for it.
	SubjectTypeSystem SubjectType = "SYSTEM"
)
