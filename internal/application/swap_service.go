package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/example/worktime/internal/persistence"
)

// SwapInput describes a new swap request. A nil TargetUserID offers the shift
// on the open market.
type SwapInput struct {
	ShiftID      string
	RequesterID  string
	TargetUserID *string
	Note         string
}

// SwapListMode selects which swaps a listing returns for a user.
type SwapListMode string

const (
	// SwapListInvolved returns swaps the user requested or is targeted by.
	SwapListInvolved SwapListMode = ""
	// SwapListMarket returns pending swaps the user could accept.
	SwapListMarket SwapListMode = "market"
	// SwapListMine returns swaps the user requested.
	SwapListMine SwapListMode = "mine"
)

// SwapFilter narrows a swap listing. Without UserID every swap matches.
type SwapFilter struct {
	UserID string
	Mode   SwapListMode
	Status persistence.SwapStatus
}

// SwapView is a swap with the details a client needs to render it.
type SwapView struct {
	persistence.Swap
	Shift         *ShiftSnapshot `json:"shift"`
	RequesterName string         `json:"requesterName"`
	TargetName    string         `json:"targetName,omitempty"`
}

// SwapService runs the swap state machine.
type SwapService struct {
	base
}

// NewSwapService constructs a SwapService.
func NewSwapService(deps ServiceDeps) *SwapService {
	return &SwapService{base: newBase("SwapService", deps)}
}

// Create opens a pending swap.
func (s *SwapService) Create(ctx context.Context, principal Principal, input SwapInput) (swap persistence.Swap, err error) {
	if s == nil {
		err = fmt.Errorf("SwapService is nil")
		return
	}

	shiftID := strings.TrimSpace(input.ShiftID)
	requesterID := strings.TrimSpace(input.RequesterID)
	targetID := trimmedPtr(input.TargetUserID)
	logger := s.loggerWith(ctx, "Create", "principal_id", principal.UserID, "shift_id", shiftID, "requester_id", requesterID)
	defer func() {
		logOutcome(ctx, logger, err, "swap created", "swap_id", swap.ID)
	}()

	vErr := &ValidationError{}
	if shiftID == "" {
		vErr.add("shiftId", msgShiftRequired)
	}
	if requesterID == "" {
		vErr.add("requesterId", msgUserRequired)
	}
	if targetID != nil && *targetID == requesterID {
		vErr.add("targetUserId", msgTargetIsRequester)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = requireSelfOrEmployer(principal, requesterID); err != nil {
		return
	}

	now := s.now().UTC()
	swap = persistence.Swap{
		ID:           s.newID(),
		ShiftID:      shiftID,
		RequesterID:  requesterID,
		TargetUserID: targetID,
		Status:       persistence.SwapPending,
		Note:         strings.TrimSpace(input.Note),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		vErr := &ValidationError{}
		if snap.Shift(shiftID) == nil {
			vErr.add("shiftId", msgShiftUnknown)
		}
		if snap.User(requesterID) == nil {
			vErr.add("requesterId", msgUserUnknown)
		}
		if targetID != nil && snap.User(*targetID) == nil {
			vErr.add("targetUserId", msgUserUnknown)
		}
		if vErr.HasErrors() {
			return vErr
		}
		for _, existing := range snap.Swaps {
			if existing.ShiftID == shiftID && existing.RequesterID == requesterID && existing.Status == persistence.SwapPending {
				return ErrAlreadyExists
			}
		}
		snap.Swaps = append(snap.Swaps, swap)
		return nil
	})
	if err == nil {
		s.recorder.SwapTransition(string(persistence.SwapPending))
	}
	return
}

// Accept completes a swap on behalf of actorID and moves the shift. An empty
// actorID falls back to the principal.
//
// On an open market swap anyone but the requester may accept and becomes the
// target. A directed swap may be accepted by its target or its requester. If
// the requester holds the shift it goes to the target, otherwise to the
// requester.
func (s *SwapService) Accept(ctx context.Context, principal Principal, id, actorID string) (swap persistence.Swap, err error) {
	if s == nil {
		err = fmt.Errorf("SwapService is nil")
		return
	}

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = principal.UserID
	}
	logger := s.loggerWith(ctx, "Accept", "principal_id", principal.UserID, "swap_id", id, "actor_id", actorID)
	defer func() {
		logOutcome(ctx, logger, err, "swap accepted")
	}()

	if actorID == "" {
		err = fieldError("userId", msgUserRequired)
		return
	}
	if err = requireSelfOrEmployer(principal, actorID); err != nil {
		return
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		current := snap.Swap(id)
		if current == nil {
			return ErrNotFound
		}
		shift := snap.Shift(current.ShiftID)
		if shift == nil {
			return ErrNotFound
		}
		if current.Status != persistence.SwapPending {
			return ErrSwapNotPending
		}

		if current.TargetUserID == nil {
			if actorID == current.RequesterID {
				return ErrUnauthorized
			}
			if snap.User(actorID) == nil {
				return fieldError("userId", msgUserUnknown)
			}
			current.TargetUserID = stringPtr(actorID)
		} else if actorID != *current.TargetUserID && actorID != current.RequesterID {
			return ErrUnauthorized
		}

		now := s.now().UTC()
		current.Status = persistence.SwapAccepted
		current.UpdatedAt = now

		newHolder := current.RequesterID
		if shift.IsAssignedTo(current.RequesterID) {
			newHolder = *current.TargetUserID
		}
		shift.AssignedUserID = stringPtr(newHolder)
		shift.UpdatedAt = now

		swap = *current
		return nil
	})
	if err == nil {
		s.recorder.SwapTransition(string(persistence.SwapAccepted))
	}
	return
}

// Reject moves a pending swap to rejected. Any caller may reject.
func (s *SwapService) Reject(ctx context.Context, principal Principal, id, actorID string) (persistence.Swap, error) {
	return s.close(ctx, "Reject", principal, id, actorID, persistence.SwapRejected)
}

// Cancel moves a pending swap to cancelled. Any caller may cancel.
func (s *SwapService) Cancel(ctx context.Context, principal Principal, id, actorID string) (persistence.Swap, error) {
	return s.close(ctx, "Cancel", principal, id, actorID, persistence.SwapCancelled)
}

func (s *SwapService) close(ctx context.Context, operation string, principal Principal, id, actorID string, status persistence.SwapStatus) (swap persistence.Swap, err error) {
	if s == nil {
		err = fmt.Errorf("SwapService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation, "principal_id", principal.UserID, "swap_id", id, "actor_id", strings.TrimSpace(actorID))
	defer func() {
		logOutcome(ctx, logger, err, "swap "+string(status))
	}()

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		current := snap.Swap(id)
		if current == nil {
			return ErrNotFound
		}
		if current.Status != persistence.SwapPending {
			return ErrSwapNotPending
		}
		current.Status = status
		current.UpdatedAt = s.now().UTC()
		swap = *current
		return nil
	})
	if err == nil {
		s.recorder.SwapTransition(string(status))
	}
	return
}

// List returns swaps newest first, each with its shift and participant names.
func (s *SwapService) List(ctx context.Context, filter SwapFilter) ([]SwapView, error) {
	switch filter.Mode {
	case SwapListInvolved, SwapListMarket, SwapListMine:
	default:
		return nil, fieldError("type", msgStatusInvalid)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fieldError("status", msgStatusInvalid)
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SwapView, 0)
	for _, sw := range snap.Swaps {
		if !matchesSwap(sw, filter) {
			continue
		}
		view := SwapView{
			Swap:          sw,
			RequesterName: displayName(snap, &sw.RequesterID),
			TargetName:    displayName(snap, sw.TargetUserID),
		}
		if shift := snap.Shift(sw.ShiftID); shift != nil {
			view.Shift = snapshotOf(*shift)
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func matchesSwap(sw persistence.Swap, filter SwapFilter) bool {
	if filter.Status != "" && sw.Status != filter.Status {
		return false
	}
	if filter.UserID == "" {
		return true
	}
	user := filter.UserID
	targeted := sw.TargetUserID != nil && *sw.TargetUserID == user
	switch filter.Mode {
	case SwapListMarket:
		return sw.Status == persistence.SwapPending &&
			sw.RequesterID != user &&
			(sw.TargetUserID == nil || targeted)
	case SwapListMine:
		return sw.RequesterID == user
	default:
		return sw.RequesterID == user || targeted
	}
}
