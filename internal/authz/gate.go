// Package authz decides whether a user may act within a project. The
// gate performs one membership read per decision and is never cached,
// so a role change is visible to the very next request.
package authz

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrNotAMember covers both "project does not exist" and "caller
	// is not a member". Collapsing the two keeps project existence
	// hidden from outsiders.
	ErrNotAMember = errors.New("not a member of this project")

	// ErrInsufficientRole means the caller is a member but their role
	// is not in the operation's allowed set.
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

// MembershipReader is the one read the gate needs.
type MembershipReader interface {
	Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Membership, error)
}

type Gate struct {
	members MembershipReader
}

func NewGate(members MembershipReader) *Gate {
	return &Gate{members: members}
}

// Authorize passes when the user holds one of the allowed roles in
// the project and returns the membership for downstream use.
func (g *Gate) Authorize(ctx context.Context, userID, projectID uuid.UUID, allowed ...model.Role) (*model.Membership, error) {
	membership, err := g.members.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, ErrNotAMember
	}

	for _, role := range allowed {
		if membership.Role == role {
			return membership, nil
		}
	}

	return nil, ErrInsufficientRole
}
