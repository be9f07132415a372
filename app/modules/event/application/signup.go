package eventservice

import (
	"context"
	"fmt"
	"slices"
	"strings"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// SignupQuery asks which signup path a user gets for a role button.
type SignupQuery struct {
	Key    eventdomain.Key
	Role   eventdomain.Role
	UserID string
}

// Eligibility is the answer to a SignupQuery.
type Eligibility struct {
	Eligible bool
	// RoleFull is true when the role is full right now. Committing still works and
	// lands the player in Reserve.
	RoleFull    bool
	NeedsClass  bool
	Classes     []eventdomain.Class
	FlexOptions []eventdomain.Role
	Reason      string
}

// SignupRequest commits a signup.
type SignupRequest struct {
	Key      eventdomain.Key
	Role     eventdomain.Role
	UserID   string
	UserName string
	Class    string
	Flex     []eventdomain.Role
}

// Outcome says which confirmation a signup gets.
type Outcome string

const (
	OutcomeIneligible Outcome = "ineligible"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeReserved   Outcome = "reserved"
)

// SignupResult reports where a player landed.
type SignupResult struct {
	Requested eventdomain.Role
	Landed    eventdomain.Role
	Outcome   Outcome
	Player    eventdomain.Player
	Message   string
}

// CheckEligibility decides whether the user may sign into the requested role and which
// choices to offer next.
func (s *EventService) CheckEligibility(ctx context.Context, q SignupQuery) (Eligibility, error) {
	return unwrap(withTelemetry(s, ctx, "CheckEligibility", q.Key.String(), func(ctx context.Context) (results.OperationResult[Eligibility, error], error) {
		rec, err := s.loadEvent(ctx, nil, q.Key)
		if err != nil {
			return classify[Eligibility](err)
		}
		if !eventdomain.HasRole(rec.Kind, q.Role) {
			return classify[Eligibility](eventdomain.NewValidationError("role", "%s events have no %s role", rec.Kind, q.Role))
		}

		if q.Role == eventdomain.RoleAbsent {
			return results.SuccessResult[Eligibility, error](Eligibility{Eligible: true}), nil
		}

		reason, err := s.ineligibleReason(ctx, rec, q.Role, q.UserID)
		if err != nil {
			return classify[Eligibility](err)
		}
		out := Eligibility{
			Eligible:    reason == "",
			Reason:      reason,
			NeedsClass:  true,
			Classes:     eventdomain.Classes(),
			FlexOptions: flexOptions(rec.Kind, q.Role),
		}
		if out.Eligible && !q.Role.IsBackup() {
			out.RoleFull = rec.Roster.IsRoleFull(q.Role)
		}
		return results.SuccessResult[Eligibility, error](out), nil
	}))
}

// Signup commits a self-service signup. Ineligible users go to Reserve; a full role
// sends the player to Reserve with the role added to their flex list.
func (s *EventService) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	if req.Role == eventdomain.RoleAbsent {
		if err := s.MarkAbsent(ctx, req.Key, req.UserID, req.UserName); err != nil {
			return SignupResult{}, err
		}
		return SignupResult{
			Requested: eventdomain.RoleAbsent,
			Landed:    eventdomain.RoleAbsent,
			Outcome:   OutcomeAccepted,
			Player:    eventdomain.Player{ID: req.UserID, Name: req.UserName},
			Message:   SignupMessage(OutcomeAccepted, eventdomain.RoleAbsent),
		}, nil
	}

	unlock := s.locks.Lock(req.Key.String())
	defer unlock()

	return unwrap(withTelemetry(s, ctx, "Signup", req.Key.String(), func(ctx context.Context) (results.OperationResult[SignupResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[SignupResult, error], error) {
			return s.signupLogic(ctx, db, req)
		})
	}))
}

func (s *EventService) signupLogic(ctx context.Context, db bun.IDB, req SignupRequest) (results.OperationResult[SignupResult, error], error) {
	rec, err := s.lockEvent(ctx, db, req.Key)
	if err != nil {
		return classify[SignupResult](err)
	}
	if !eventdomain.HasRole(rec.Kind, req.Role) {
		return classify[SignupResult](eventdomain.NewValidationError("role", "%s events have no %s role", rec.Kind, req.Role))
	}

	player := eventdomain.Player{ID: req.UserID, Name: req.UserName}
	if strings.TrimSpace(req.Class) != "" {
		class, err := eventdomain.ParseClass(req.Class)
		if err != nil {
			return classify[SignupResult](err)
		}
		player.Class = class
	}
	for _, r := range req.Flex {
		if slices.Contains(flexOptions(rec.Kind, req.Role), r) {
			player.AddFlex(r)
		}
	}

	reason, err := s.ineligibleReason(ctx, rec, req.Role, req.UserID)
	if err != nil {
		return classify[SignupResult](err)
	}

	out := SignupResult{Requested: req.Role}
	if reason != "" {
		rec.Roster.AddReserve(player)
		out.Landed = eventdomain.RoleReserve
		out.Outcome = OutcomeIneligible
		s.logger.InfoContext(ctx, "Ineligible signup redirected to reserve",
			attr.EventKey(req.Key.String()),
			attr.UserID(req.UserID),
			attr.String("reason", reason),
		)
	} else {
		out.Landed = rec.Roster.Signup(req.Role, player)
		out.Outcome = OutcomeAccepted
		if out.Landed != req.Role {
			out.Outcome = OutcomeReserved
		}
	}

	_, stored, _ := rec.Roster.Find(req.UserID)
	out.Player = stored
	out.Message = SignupMessage(out.Outcome, req.Role)

	if err := s.repo.UpsertPlayer(ctx, db, req.Key, out.Landed, stored); err != nil {
		return results.OperationResult[SignupResult, error]{}, fmt.Errorf("failed to store signup: %w", err)
	}

	s.refreshRoster(ctx, rec)
	s.notifyLeader(ctx, rec, leaderNotice(rec, stored, out.Landed))

	return results.SuccessResult[SignupResult, error](out), nil
}

// MarkAbsent moves the user to Absent.
func (s *EventService) MarkAbsent(ctx context.Context, key eventdomain.Key, userID, userName string) error {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	_, err := unwrap(withTelemetry(s, ctx, "MarkAbsent", key.String(), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
			rec, err := s.lockEvent(ctx, db, key)
			if err != nil {
				return classify[struct{}](err)
			}
			player := eventdomain.Player{ID: userID, Name: userName}
			rec.Roster.AddAbsent(player)
			if err := s.repo.UpsertPlayer(ctx, db, key, eventdomain.RoleAbsent, player); err != nil {
				return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to store absence: %w", err)
			}
			s.refreshRoster(ctx, rec)
			s.notifyLeader(ctx, rec, leaderNotice(rec, player, eventdomain.RoleAbsent))
			return results.SuccessResult[struct{}, error](struct{}{}), nil
		})
	}))
	return err
}

// ineligibleReason returns why userID may not take role, or "" when they may. Backup
// roles are open to everyone.
func (s *EventService) ineligibleReason(ctx context.Context, rec *eventdomain.EventRecord, role eventdomain.Role, userID string) (string, error) {
	if role.IsBackup() {
		return "", nil
	}
	if rec.Scope == eventdomain.ScopePrivate && !rec.IsLeader(userID) {
		return "closed roster", nil
	}

	var required []string
	if rec.NotificationRoleID != "" {
		required = append(required, rec.NotificationRoleID)
	}
	if id := s.initiationRoles[rec.Kind]; id != "" {
		required = append(required, id)
	}
	if len(required) == 0 {
		return "", nil
	}

	roles, err := s.platform.MemberRoles(ctx, rec.GuildID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch member roles: %w", err)
	}
	for _, id := range required {
		if !slices.Contains(roles, id) {
			if id == rec.NotificationRoleID {
				return "missing notification role", nil
			}
			return "missing initiation role", nil
		}
	}
	return "", nil
}

// flexOptions lists the signed roles a player may offer besides requested.
func flexOptions(kind eventdomain.EventKind, requested eventdomain.Role) []eventdomain.Role {
	var out []eventdomain.Role
	for _, r := range eventdomain.SignedRolesFor(kind) {
		if r != requested {
			out = append(out, r)
		}
	}
	return out
}

// SignupMessage is the confirmation shown to the player.
func SignupMessage(outcome Outcome, requested eventdomain.Role) string {
	switch outcome {
	case OutcomeIneligible:
		return fmt.Sprintf("You cannot sign up as %s for this event, so you have been added to %s.", requested.Label(), eventdomain.RoleReserve.Label())
	case OutcomeReserved:
		return fmt.Sprintf("%s is full. You have been moved to %s and will be called if a spot opens.", requested.Label(), eventdomain.RoleReserve.Label())
	}
	if requested == eventdomain.RoleAbsent {
		return "You have been marked as absent."
	}
	return fmt.Sprintf("You're in as %s %s.", requested.Emoji(), requested.Label())
}

func leaderNotice(rec *eventdomain.EventRecord, p eventdomain.Player, landed eventdomain.Role) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s joined %s as %s", p.Name, rec.Title, landed.Label())
	if p.Class != "" {
		fmt.Fprintf(&b, " (%s)", p.Class)
	}
	if len(p.Flex) > 0 {
		labels := make([]string, 0, len(p.Flex))
		for _, r := range p.Flex {
			labels = append(labels, r.Label())
		}
		fmt.Fprintf(&b, ", flex: %s", strings.Join(labels, ", "))
	}
	return b.String()
}
