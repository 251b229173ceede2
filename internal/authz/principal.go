package authz

import "fmt"

type Role int

const (
	RoleAnonymous Role = iota
	RoleCandidate
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return "anonymous"
	case RoleCandidate:
		return "candidate"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Principal is the identity a request acts as. The zero value is Anonymous.
type Principal struct {
	role Role
	id   uint
}

func Anonymous() Principal {
	return Principal{role: RoleAnonymous}
}

func Candidate(id uint) Principal {
	return Principal{role: RoleCandidate, id: id}
}

func Admin(id uint) Principal {
	return Principal{role: RoleAdmin, id: id}
}

func (p Principal) Role() Role {
	return p.role
}

// ID is zero for Anonymous.
func (p Principal) ID() uint {
	return p.id
}

func (p Principal) IsAuthenticated() bool {
	return p.role == RoleCandidate || p.role == RoleAdmin
}

func (p Principal) IsAdmin() bool {
	return p.role == RoleAdmin
}

func (p Principal) String() string {
	if !p.IsAuthenticated() {
		return p.role.String()
	}
	return fmt.Sprintf("%s(%d)", p.role, p.id)
}
