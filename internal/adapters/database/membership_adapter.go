package database

import (
	"context"

	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
)

// MembershipAdapter answers authorization questions through the
// is_group_member and is_org_admin_for_group database functions.
type MembershipAdapter struct {
	client *postgres.Client
}

// NewMembershipAdapter creates a new membership adapter
func NewMembershipAdapter(client *postgres.Client) repositories.MembershipRepository {
	return &MembershipAdapter{client: client}
}

// IsGroupMember reports whether userID belongs to groupID
func (a *MembershipAdapter) IsGroupMember(ctx context.Context, userID, groupID string) (bool, error) {
	return a.check(ctx, `SELECT is_group_member($1, $2)`, userID, groupID)
}

// IsOrgAdminForGroup reports whether userID administers the organization owning groupID
func (a *MembershipAdapter) IsOrgAdminForGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return a.check(ctx, `SELECT is_org_admin_for_group($1, $2)`, userID, groupID)
}

func (a *MembershipAdapter) check(ctx context.Context, query, userID, groupID string) (bool, error) {
	var ok bool
	if err := a.client.DB().QueryRowContext(ctx, query, userID, groupID).Scan(&ok); err != nil {
		return false, apperrors.NewInternalError("authorization check failed", err)
	}
	return ok, nil
}
