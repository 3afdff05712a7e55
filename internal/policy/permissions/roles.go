package permissions

type Role int

const (
	RoleUser Role = iota
	RoleModerator
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleModerator:
		return "moderator"
	default:
		return "user"
	}
}

// Roster holds the configured privileged users. Admin and moderator are
// separate grants; an admin is not implicitly a moderator.
type Roster struct {
	admins     map[int64]struct{}
	moderators map[int64]struct{}
}

func NewRoster(adminIDs, moderatorIDs []int64) *Roster {
	r := &Roster{
		admins:     make(map[int64]struct{}, len(adminIDs)),
		moderators: make(map[int64]struct{}, len(moderatorIDs)),
	}
	for _, id := range adminIDs {
		r.admins[id] = struct{}{}
	}
	for _, id := range moderatorIDs {
		r.moderators[id] = struct{}{}
	}
	return r
}

func (r *Roster) IsAdmin(userID int64) bool {
	_, ok := r.admins[userID]
	return ok
}

func (r *Roster) IsModerator(userID int64) bool {
	_, ok := r.moderators[userID]
	return ok
}

// Allows is the single predicate applied to every privileged command.
func (r *Roster) Allows(userID int64, required Role) bool {
	switch required {
	case RoleAdmin:
		return r.IsAdmin(userID)
	case RoleModerator:
		return r.IsModerator(userID)
	default:
		return true
	}
}

func (r *Roster) Admins() []int64 {
	return sortedIDs(r.admins)
}

func (r *Roster) Moderators() []int64 {
	return sortedIDs(r.moderators)
}
