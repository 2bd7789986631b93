package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/recruiting-crm-api/internal/models"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
)

// Transition is one classified change detected while applying a patch.
type Transition struct {
	Kind       models.TransitionKind
	OldStageID *string
	NewStageID *string
	OldStatus  models.PipelineStatus
	NewStatus  models.PipelineStatus
}

// ApplyTransition decides the next state of an entry for the given patch and reports the
// transition kinds it produced, stage change first. It never touches storage.
func ApplyTransition(current models.PipelineEntry, patch models.PipelinePatch, now time.Time) (models.PipelineEntry, []Transition, error) {
	if err := validatePatch(current, patch); err != nil {
		return models.PipelineEntry{}, nil, err
	}

	next := current
	var transitions []Transition

	if patch.StageID != nil {
		stageID := strings.TrimSpace(*patch.StageID)
		if !sameStage(current.StageID, stageID) {
			transitions = append(transitions, Transition{
				Kind:       models.TransitionStageChanged,
				OldStageID: copyString(current.StageID),
				NewStageID: &stageID,
				OldStatus:  current.Status,
				NewStatus:  current.Status,
			})
		}
		next.StageID = &stageID
	}

	if patch.Status != nil {
		target := *patch.Status
		if target != current.Status {
			transitions = append(transitions, Transition{
				Kind:       statusKind(target),
				OldStageID: copyString(current.StageID),
				NewStageID: copyString(next.StageID),
				OldStatus:  current.Status,
				NewStatus:  target,
			})
		}
		next.Status = target
		stampTerminal(&next, now)
	}

	if patch.Rating != nil {
		rating := *patch.Rating
		next.Rating = &rating
	}
	if patch.Notes != nil {
		notes := *patch.Notes
		next.Notes = &notes
	}
	if patch.InterviewDate != nil {
		interview := patch.InterviewDate.UTC()
		next.InterviewDate = &interview
	}
	if patch.OfferDetails != nil {
		next.OfferDetails = patch.OfferDetails
	}
	if patch.RejectionReason != nil {
		reason := *patch.RejectionReason
		next.RejectionReason = &reason
	}
	if patch.CustomFields != nil {
		next.CustomFields = patch.CustomFields
	}
	clearTerminalFields(&next)

	return next, transitions, nil
}

func validatePatch(current models.PipelineEntry, patch models.PipelinePatch) error {
	if patch.StageID != nil && strings.TrimSpace(*patch.StageID) == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "stageId must not be empty")
	}
	if patch.Rating != nil && (*patch.Rating < models.MinRating || *patch.Rating > models.MaxRating) {
		return appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	resulting := current.Status
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("unknown status %q", *patch.Status))
		}
		resulting = *patch.Status
	}
	if patch.OfferDetails != nil && resulting != models.PipelineStatusHired {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "offerDetails can only be set on hired entries")
	}
	if patch.RejectionReason != nil && resulting != models.PipelineStatusPassed {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "rejectionReason can only be set on passed entries")
	}
	return nil
}

func statusKind(target models.PipelineStatus) models.TransitionKind {
	switch target {
	case models.PipelineStatusHired:
		return models.TransitionHired
	case models.PipelineStatusPassed:
		return models.TransitionPassed
	default:
		return models.TransitionUpdated
	}
}

// stampTerminal sets the timestamp matching a terminal status. An existing value wins.
func stampTerminal(entry *models.PipelineEntry, now time.Time) {
	ts := now.UTC()
	switch entry.Status {
	case models.PipelineStatusHired:
		if entry.HiredAt == nil {
			entry.HiredAt = &ts
		}
	case models.PipelineStatusPassed:
		if entry.RejectedAt == nil {
			entry.RejectedAt = &ts
		}
	case models.PipelineStatusWithdrawn:
		if entry.WithdrawnAt == nil {
			entry.WithdrawnAt = &ts
		}
	}
}

// clearTerminalFields drops offer and rejection data that no longer match the status.
func clearTerminalFields(entry *models.PipelineEntry) {
	if entry.Status != models.PipelineStatusHired {
		entry.OfferDetails = nil
	}
	if entry.Status != models.PipelineStatusPassed {
		entry.RejectionReason = nil
	}
}

func sameStage(current *string, next string) bool {
	return current != nil && *current == next
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
