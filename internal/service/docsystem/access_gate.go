package docsystem

import (
	"context"
	"log/slog"

	"nodestore/internal/domain"
	docsysRepo "nodestore/internal/domain/repositories/docsystem"
	docsysSvc "nodestore/internal/domain/services/docsystem"
)

type accessGate struct {
	members docsysRepo.MembershipRepository
	logger  *slog.Logger
}

// NewAccessGate creates the public/private visibility gate
func NewAccessGate(members docsysRepo.MembershipRepository, logger *slog.Logger) docsysSvc.AccessGate {
	return &accessGate{
		members: members,
		logger:  logger,
	}
}

// Evaluate applies the visibility table:
//
//	public                      -> serve (no membership lookup)
//	private, anonymous          -> denied
//	private, member             -> redirect into the app
//	private, authenticated only -> denied
func (g *accessGate) Evaluate(ctx context.Context, target docsysSvc.AccessTarget, userID string) (*docsysSvc.AccessDecision, error) {
	authenticated := userID != ""

	if target.IsPublic {
		return &docsysSvc.AccessDecision{
			Outcome:         docsysSvc.OutcomeServe,
			IsAuthenticated: authenticated,
		}, nil
	}

	if !authenticated {
		return nil, domain.NewAccessDenied("not public")
	}

	member, err := g.members.IsMember(ctx, target.ProjectID, userID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "check project membership", Err: err}
	}
	if !member {
		g.logger.Debug("private target denied to non-member",
			"project_id", target.ProjectID,
			"user_id", userID,
		)
		return nil, domain.NewAccessDenied("access denied")
	}

	return &docsysSvc.AccessDecision{
		Outcome:         docsysSvc.OutcomeRedirect,
		IsAuthenticated: true,
	}, nil
}
