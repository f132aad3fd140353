package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	GroupAuthorizer portssvc.GroupAuthorizerSvc
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeUser checks if a user holds at least requiredRole in a group.
// Without an authorizer every request is refused.
func (s *BaseService) AuthorizeUser(ctx context.Context, userID, groupID string, requiredRole domain.MemberRole) error {
	if s.GroupAuthorizer == nil {
		s.LogDebug(ctx, "No group authorizer configured, denying access",
			slog.String("user_id", userID),
			slog.String("group_id", groupID))
		return fmt.Errorf("%w: no authorizer configured", apperrors.ErrForbidden)
	}
	return s.GroupAuthorizer.AuthorizeMember(ctx, userID, groupID, requiredRole)
}
