package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vlanman/internal/entity"
	"vlanman/internal/repository"
	"vlanman/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuthConfig struct {
	SessionTimeout time.Duration
}

type LoginInput struct {
	NIM       string
	Name      string
	Email     string
	IPAddress *string
	UserAgent *string
}

type LoginResult struct {
	User        *entity.User
	SessionID   uuid.UUID
	AccessToken string
	ExpiresIn   int64
}

// AuthService identifies users by NIM, creating them on first login,
// and owns the session rows the session sweeper later reclaims.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	activities repository.ActivityLogRepository

	tokens *utils.JWTManager
	clock  Clock
	config AuthConfig
	log    logrus.FieldLogger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	activities repository.ActivityLogRepository,
	tokens *utils.JWTManager,
	clock Clock,
	config AuthConfig,
	log logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		activities: activities,
		tokens:     tokens,
		clock:      clock,
		config:     config,
		log:        log,
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	nim := strings.TrimSpace(input.NIM)
	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)
	if nim == "" || name == "" || email == "" {
		return nil, fmt.Errorf("%w: nim, name and email are required", ErrValidation)
	}

	user, err := s.users.FindByNIM(ctx, nim)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &entity.User{
			Name:  name,
			NIM:   nim,
			Email: email,
			Role:  entity.UserRoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"nim": nim}).Info("new user registered")
	}

	token, err := utils.NewSessionToken(32)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	session := &entity.Session{
		UserID:       user.ID,
		TokenHash:    utils.HashSessionToken(token),
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		LastActivity: now,
		ExpiresAt:    now.Add(s.sessionTimeout()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	access, ttl, err := s.tokens.IssueAccessToken(user.ID.String(), string(user.Role), session.ID.String())
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, &user.ID, input.IPAddress, entity.ActionLogin, entity.ActivitySuccess, "User logged in")
	return &LoginResult{
		User:        user,
		SessionID:   session.ID,
		AccessToken: access,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID, sessionID uuid.UUID, ip *string) error {
	if err := s.sessions.Revoke(ctx, sessionID, s.clock.Now()); err != nil {
		return err
	}
	s.logActivity(ctx, &userID, ip, entity.ActionLogout, entity.ActivitySuccess, "User logged out")
	return nil
}

// Authenticate validates the session referenced by an access token
// and extends its rolling lifetime. An expired or revoked session is
// absent here regardless of whether the sweeper has run.
func (s *AuthService) Authenticate(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	now := s.clock.Now()
	session, err := s.sessions.FindLive(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidSession
	}
	if err := s.sessions.Touch(ctx, sessionID, now, s.sessionTimeout()); err != nil {
		s.log.WithError(err).Warn("session touch failed")
	}
	return session, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]entity.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) CountUserVlans(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.users.CountVlans(ctx, userID)
}

func (s *AuthService) sessionTimeout() time.Duration {
	if s.config.SessionTimeout == 0 {
		return 30 * time.Minute
	}
	return s.config.SessionTimeout
}

func (s *AuthService) logActivity(ctx context.Context, actorID *uuid.UUID, ip *string, action entity.ActivityAction, status entity.ActivityStatus, detail string) {
	entry := &entity.ActivityLog{
		ActorID:   actorID,
		Action:    action,
		Status:    status,
		Detail:    detail,
		IPAddress: ip,
	}
	if err := s.activities.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("activity log write failed")
	}
}
