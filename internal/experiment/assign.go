package experiment

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Partition is a disjoint, total split of a set of user ids into the two groups.
type Partition struct {
	Salt      string
	Control   []UserID
	Treatment []UserID
	groups    map[UserID]Group
}

// GroupOf reports the group id was assigned to.
func (p *Partition) GroupOf(id UserID) (Group, bool) {
	g, ok := p.groups[id]
	return g, ok
}

// Size is the number of assigned ids.
func (p *Partition) Size() int {
	return len(p.groups)
}

// NewUserIDs draws n random 128-bit tokens from r.
func NewUserIDs(r io.Reader, n int) ([]UserID, error) {
	if n <= 0 {
		return nil, eris.Wrapf(ErrInvalidArgument, "population size must be positive, got %d", n)
	}

	ids := make([]UserID, n)
	for i := range ids {
		tok, err := newToken(r)
		if err != nil {
			return nil, eris.Wrap(err, "generate user id")
		}
		ids[i] = UserID(tok)
	}
	return ids, nil
}

// NewSalt draws a fresh 128-bit salt from r.
func NewSalt(r io.Reader) (string, error) {
	salt, err := newToken(r)
	if err != nil {
		return "", eris.Wrap(err, "generate salt")
	}
	return salt, nil
}

// AssignGroups splits ids into control and treatment under a freshly drawn salt.
func AssignGroups(r io.Reader, ids []UserID) (*Partition, error) {
	salt, err := NewSalt(r)
	if err != nil {
		return nil, err
	}
	return AssignGroupsWithSalt(ids, salt)
}

// AssignGroupsWithSalt splits ids into control and treatment. The assignment of
// an id depends only on the id and the salt: the MD5 digest of id+salt is read
// as a big-endian integer, even values go to treatment and odd values to control.
// Groups keep the order in which ids were given.
func AssignGroupsWithSalt(ids []UserID, salt string) (*Partition, error) {
	p := &Partition{
		Salt:   salt,
		groups: make(map[UserID]Group, len(ids)),
	}

	for _, id := range ids {
		if id == "" {
			return nil, eris.Wrap(ErrInvalidArgument, "empty user id")
		}
		if _, dup := p.groups[id]; dup {
			return nil, eris.Wrapf(ErrInvalidArgument, "duplicate user id %q", id)
		}

		g := groupFor(id, salt)
		p.groups[id] = g
		if g == GroupTreatment {
			p.Treatment = append(p.Treatment, id)
		} else {
			p.Control = append(p.Control, id)
		}
	}

	return p, nil
}

func groupFor(id UserID, salt string) Group {
	sum := md5.Sum([]byte(string(id) + salt))
	// parity of the digest as an integer is the parity of its last byte
	if sum[len(sum)-1]&1 == 0 {
		return GroupTreatment
	}
	return GroupControl
}

func newToken(r io.Reader) (string, error) {
	u, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(u[:]), nil
}
