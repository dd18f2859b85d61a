package kernel

// MemberID identifies a member in the organization directory. Send records
// store it when the recipient address resolves to a known member.
type MemberID string

func NewMemberID(id string) MemberID { return MemberID(id) }
func (m MemberID) String() string    { return string(m) }
func (m MemberID) IsEmpty() bool     { return string(m) == "" }
