package services

import (
	"context"

	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
)

// AuthorizationGate admits callers who belong to a group or administer the
// organization that owns it.
type AuthorizationGate struct {
	memberships repositories.MembershipRepository
}

// NewAuthorizationGate creates a new authorization gate
func NewAuthorizationGate(memberships repositories.MembershipRepository) *AuthorizationGate {
	return &AuthorizationGate{memberships: memberships}
}

// Authorize returns nil when callerID may act on groupID, a FORBIDDEN error
// when neither check passes and an INTERNAL error when a check itself fails.
func (g *AuthorizationGate) Authorize(ctx context.Context, callerID, groupID string) error {
	member, err := g.memberships.IsGroupMember(ctx, callerID, groupID)
	if err != nil {
		return apperrors.NewInternalError("failed to check group membership", err)
	}
	if member {
		return nil
	}

	admin, err := g.memberships.IsOrgAdminForGroup(ctx, callerID, groupID)
	if err != nil {
		return apperrors.NewInternalError("failed to check organization admin", err)
	}
	if admin {
		return nil
	}

	return apperrors.NewForbiddenError("not a member or org admin for this group")
}
