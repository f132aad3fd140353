package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/splitledger/internal/apperrors"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
)

type participantValidator struct {
	directory portssvc.MembershipDirectory
}

// NewParticipantValidator checks participants against directory at call time.
func NewParticipantValidator(directory portssvc.MembershipDirectory) portssvc.ParticipantValidator {
	return &participantValidator{directory: directory}
}

func (v *participantValidator) ValidateParticipants(ctx context.Context, groupID string, participantIDs []string) error {
	current, err := v.directory.GetCurrentMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}

	unknown := map[string]struct{}{}
	for _, id := range participantIDs {
		if _, ok := current[id]; !ok {
			unknown[id] = struct{}{}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("%w: not current members of group %s: %s", apperrors.ErrInvalidParticipant, groupID, strings.Join(sortedKeys(unknown), ", "))
}
