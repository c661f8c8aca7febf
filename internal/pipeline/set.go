package pipeline

import "github.com/google/uuid"

// userSet collects touched identities, unique by user ID, preserving first
// insertion order. Membership updates derived from it are pure set unions.
type userSet struct {
	order []MemberRef
	index map[uuid.UUID]bool
}

func newUserSet() *userSet {
	return &userSet{index: make(map[uuid.UUID]bool)}
}

func (s *userSet) add(id uuid.UUID, username string) {
	if s.index[id] {
		return
	}
	s.index[id] = true
	s.order = append(s.order, MemberRef{UserID: id, Username: username})
}

func (s *userSet) len() int {
	return len(s.order)
}

func (s *userSet) ids() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.order))
	for _, ref := range s.order {
		ids = append(ids, ref.UserID)
	}
	return ids
}

func (s *userSet) refs() []MemberRef {
	refs := make([]MemberRef, len(s.order))
	copy(refs, s.order)
	return refs
}
