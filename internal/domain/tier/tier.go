package tier

// Tier is a user's privilege level. Higher values include lower ones.
type Tier int

const (
	Standard Tier = iota
	Supporter
	Moderator
	Administrator
)

func (t Tier) String() string {
	switch t {
	case Supporter:
		return "supporter"
	case Moderator:
		return "moderator"
	case Administrator:
		return "administrator"
	default:
		return "standard"
	}
}

// AtLeast reports whether t grants everything min grants
func (t Tier) AtLeast(min Tier) bool {
	return t >= min
}
