package services

import (
	"context"
	"strings"

	"research-review-portal/models"
	"research-review-portal/workflow"
)

type UserService interface {
	// Register creates or refreshes the profile of the authenticated caller.
	Register(ctx context.Context, actor models.Actor, req models.RegisterRequest) (*models.User, error)
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)
	ChangeRole(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*models.User, error)
	ListReviewers(ctx context.Context, actor models.Actor) ([]models.User, error)
	// ResolveRole returns the stored role of userID, or Author for unknown users.
	ResolveRole(ctx context.Context, userID string) (models.UserRole, error)
}

type userService struct {
	Dependencies
}

func NewUserService(deps Dependencies) UserService {
	return &userService{Dependencies: deps.withDefaults()}
}

func (s *userService) Register(ctx context.Context, actor models.Actor, req models.RegisterRequest) (*models.User, error) {
	if actor.ID == "" {
		return nil, models.NewForbiddenError("authentication required")
	}
	if actor.Email == "" {
		return nil, models.NewValidationError("email", "the token carries no email address")
	}
	user := &models.User{
		ID:        actor.ID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     actor.Email,
		Role:      models.RoleAuthor,
	}
	if user.FirstName == "" {
		return nil, models.NewValidationError("firstName", "is required")
	}
	if user.LastName == "" {
		return nil, models.NewValidationError("lastName", "is required")
	}

	if err := s.Users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	s.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.Users.GetByID(ctx, user.ID)
}

func (s *userService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.ID == "" {
		return nil, models.NewForbiddenError("authentication required")
	}
	return s.Users.GetByID(ctx, actor.ID)
}

func (s *userService) ChangeRole(ctx context.Context, actor models.Actor, userID string, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, reject(workflow.OpChangeRole, models.NewValidationError("role", "must be one of Author, Editor, Reviewer, Admin"))
	}
	if err := workflow.Authorize(actor, workflow.OpChangeRole, workflow.Resource{Role: role}); err != nil {
		return nil, reject(workflow.OpChangeRole, err)
	}
	target, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, reject(workflow.OpChangeRole, err)
	}
	if err := workflow.Authorize(actor, workflow.OpChangeRole, workflow.Resource{Role: role, CurrentRole: target.Role}); err != nil {
		return nil, reject(workflow.OpChangeRole, err)
	}
	if err := s.Users.UpdateRole(ctx, userID, role); err != nil {
		return nil, reject(workflow.OpChangeRole, err)
	}
	s.Logger.InfoContext(ctx, "user role changed",
		"user_id", userID,
		"role", role,
		"actor_id", actor.ID,
	)
	return s.Users.GetByID(ctx, userID)
}

func (s *userService) ListReviewers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := workflow.Authorize(actor, workflow.OpAssign, workflow.Resource{}); err != nil {
		return nil, err
	}
	return s.Users.ListByRole(ctx, models.RoleReviewer)
}

func (s *userService) ResolveRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if models.KindOf(err) == models.KindNotFound {
			return models.RoleAuthor, nil
		}
		return "", err
	}
	return user.Role, nil
}
