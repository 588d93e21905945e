package chat

import "strings"

// Pair is the canonical, sorted participant pair of a 1:1 conversation.
type Pair [2]string

// NewPair builds the unordered pair {userA, userB}. The same two users always
// produce the same Pair regardless of argument order.
func NewPair(userA, userB string) (Pair, error) {
	a := strings.TrimSpace(userA)
	b := strings.TrimSpace(userB)
	if a == "" || b == "" {
		return Pair{}, ErrMissingIdentity
	}
	if a == b {
		return Pair{}, ErrSelfConversation
	}
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}, nil
}

// Key is the uniqueness key stored alongside the conversation.
func (p Pair) Key() string {
	return p[0] + ":" + p[1]
}

// Has reports whether userID is one of the two participants.
func (p Pair) Has(userID string) bool {
	return userID != "" && (p[0] == userID || p[1] == userID)
}

// Other returns the participant that is not userID.
func (p Pair) Other(userID string) (string, error) {
	switch userID {
	case "":
		return "", ErrParticipantNotFound
	case p[0]:
		return p[1], nil
	case p[1]:
		return p[0], nil
	}
	return "", ErrParticipantNotFound
}

// Participant is the displayable profile of a conversation member.
type Participant struct {
	UserID   string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	PhotoURL string `db:"photo_url" json:"photoUrl"`
}
