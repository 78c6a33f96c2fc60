package model

// Principal identifies an authenticated caller and the roles it holds.
// A nil Principal means the request carried no usable identity.
type Principal struct {
	ID    string
	Roles []string
}

// HasRole reports whether the principal holds the given role
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
