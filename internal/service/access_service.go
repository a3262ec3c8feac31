package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go-inventory-sales/internal/identity"
	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/pkg/jwt"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type AccessService interface {
	// SignIn verifies the provider token and registers the identity. Only
	// approved users get a session token; the rest get model.ErrAccessPending.
	SignIn(ctx context.Context, accessToken string) (*SignInResponse, error)
	ListPending(ctx context.Context) ([]model.User, error)
	// Decide approves or rejects a pending user. A rejected user is deleted
	// and the returned user is nil.
	Decide(ctx context.Context, req *DecisionRequest) (*model.User, error)
}

type SignInResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type DecisionRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type accessService struct {
	userRepo    repository.UserRepository
	verifier    identity.Verifier
	jwt         *jwt.Manager
	adminEmails map[string]bool
	log         *slog.Logger
}

func NewAccessService(
	userRepo repository.UserRepository,
	verifier identity.Verifier,
	jwtManager *jwt.Manager,
	adminEmails []string,
	log *slog.Logger,
) AccessService {
	if log == nil {
		log = slog.Default()
	}
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = true
		}
	}

	return &accessService{
		userRepo:    userRepo,
		verifier:    verifier,
		jwt:         jwtManager,
		adminEmails: admins,
		log:         log,
	}
}

func (s *accessService) SignIn(ctx context.Context, accessToken string) (*SignInResponse, error) {
	id, err := s.verifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(id.Email)
	admin := s.adminEmails[email]
	candidate := &model.User{
		ID:        id.Subject,
		Email:     email,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		Status:    model.UserPending,
	}
	if admin {
		candidate.Status = model.UserApproved
		candidate.IsAdmin = true
	}

	user, err := s.userRepo.Upsert(ctx, candidate)
	if err != nil {
		return nil, err
	}

	// The admin list may have grown since the user first signed in
	if admin && (!user.IsApproved() || !user.IsAdmin) {
		if err := s.userRepo.UpdateStatus(ctx, email, model.UserApproved, true); err != nil {
			return nil, err
		}
		user.Status = model.UserApproved
		user.IsAdmin = true
	}

	if !user.IsApproved() {
		s.log.Info("sign-in awaiting approval", slog.String("email", email))
		return nil, model.ErrAccessPending
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Name, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	if err := s.userRepo.UpdateLastSeen(ctx, user.ID); err != nil {
		s.log.Warn("failed to update last seen", slog.String("email", email), slog.Any("error", err))
	}

	return &SignInResponse{Token: token, User: user}, nil
}

func (s *accessService) ListPending(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindByStatus(ctx, model.UserPending)
}

func (s *accessService) Decide(ctx context.Context, req *DecisionRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case DecisionApprove:
		if user.IsApproved() {
			return user, nil
		}
		if err := s.userRepo.UpdateStatus(ctx, user.Email, model.UserApproved, user.IsAdmin); err != nil {
			return nil, err
		}
		user.Status = model.UserApproved
		s.log.Info("user approved", slog.String("email", user.Email))
		return user, nil

	case DecisionReject:
		if user.IsApproved() {
			return nil, model.NewValidationError("email", "only pending users can be rejected")
		}
		if err := s.userRepo.Delete(ctx, user.Email); err != nil {
			return nil, err
		}
		s.log.Info("user rejected", slog.String("email", user.Email))
		return nil, nil

	default:
		return nil, model.NewValidationError("action", "must be one of [approve reject]")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
