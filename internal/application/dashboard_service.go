package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

// ClockInState says whether a user may clock in right now.
type ClockInState string

const (
	ClockInNoShift    ClockInState = "no_shift"
	ClockInTooEarly   ClockInState = "too_early"
	ClockInOK         ClockInState = "ok"
	ClockInShiftEnded ClockInState = "shift_ended"
)

// ClockInStatus is the evaluated clock-in eligibility.
type ClockInStatus struct {
	State      ClockInState `json:"state"`
	Message    string       `json:"message"`
	CanClockIn bool         `json:"canClockIn"`
	ShiftID    string       `json:"shiftId,omitempty"`
	OpensAt    *time.Time   `json:"opensAt,omitempty"`
}

// NoShiftStatus is the eligibility of a user without a shift today.
func NoShiftStatus() ClockInStatus {
	return ClockInStatus{State: ClockInNoShift, Message: "Nie masz dzisiaj zaplanowanej zmiany."}
}

// EvaluateClockIn places now relative to [start-lead, end]. Clocking in is
// allowed only inside that window, both ends included.
func EvaluateClockIn(now, start, end time.Time, lead time.Duration) ClockInStatus {
	opens := start.Add(-lead)
	switch {
	case now.Before(opens):
		return ClockInStatus{
			State:   ClockInTooEarly,
			Message: fmt.Sprintf("Za wcześnie na rozpoczęcie zmiany. Wejście możliwe od %s.", opens.Format("15:04")),
			OpensAt: &opens,
		}
	case now.After(end):
		return ClockInStatus{State: ClockInShiftEnded, Message: "Twoja dzisiejsza zmiana już się zakończyła."}
	default:
		return ClockInStatus{State: ClockInOK, Message: "Możesz rozpocząć zmianę.", CanClockIn: true}
	}
}

// NextShift is the upcoming shift of a user.
type NextShift struct {
	persistence.Shift
	IsToday bool `json:"isToday"`
}

// Earnings projects pay from scheduled and worked time.
type Earnings struct {
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Planned    decimal.Decimal `json:"planned"`
	Worked     decimal.Decimal `json:"worked"`
}

// Dashboard is the per-user home screen summary.
type Dashboard struct {
	UserID               string                 `json:"userId"`
	NextShift            *NextShift             `json:"nextShift"`
	WeekStart            string                 `json:"weekStart"`
	WeekEnd              string                 `json:"weekEnd"`
	WeeklyWorkedMinutes  int                    `json:"weeklyWorkedMinutes"`
	WeeklyPlannedMinutes int                    `json:"weeklyPlannedMinutes"`
	MonthlyTargetMinutes int                    `json:"monthlyTargetMinutes"`
	ClockIn              ClockInStatus          `json:"clockIn"`
	ActiveTimesheet      *persistence.Timesheet `json:"activeTimesheet"`
	Earnings             Earnings               `json:"earnings"`
}

// Hours periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// HoursSummary totals a user's time over a week or calendar month. To is the
// last date of the period.
type HoursSummary struct {
	UserID         string   `json:"userId"`
	Period         string   `json:"period"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	WorkedMinutes  int      `json:"workedMinutes"`
	PlannedMinutes int      `json:"plannedMinutes"`
	Earnings       Earnings `json:"earnings"`
}

// DashboardService computes read-only aggregates.
type DashboardService struct {
	base
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(deps ServiceDeps) *DashboardService {
	return &DashboardService{base: newBase("DashboardService", deps)}
}

// Dashboard builds the summary for userID at the current time.
func (s *DashboardService) Dashboard(ctx context.Context, principal Principal, userID string) (Dashboard, error) {
	if err := requireSelfOrEmployer(principal, userID); err != nil {
		return Dashboard{}, err
	}
	snap, err := s.load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	user := snap.User(userID)
	if user == nil {
		return Dashboard{}, ErrNotFound
	}

	loc := s.location()
	now := s.now().In(loc)
	today := shifttime.FormatDate(now, loc)
	weekStart, weekEnd := shifttime.WeekBounds(now, loc)
	mine := shiftsOf(snap, userID, loc)

	out := Dashboard{
		UserID:               userID,
		WeekStart:            shifttime.FormatDate(weekStart, loc),
		WeekEnd:              shifttime.FormatDate(weekEnd.Add(-time.Nanosecond), loc),
		MonthlyTargetMinutes: s.monthlyTargetMinutes(*user),
		ClockIn:              s.clockInStatus(mine, today, now, loc),
	}
	out.WeeklyWorkedMinutes, out.WeeklyPlannedMinutes = totals(snap, userID, mine, weekStart, weekEnd, loc)
	out.Earnings = earnings(user.HourlyRate, out.WeeklyPlannedMinutes, out.WeeklyWorkedMinutes)

	for _, sh := range mine {
		_, end, ok := shiftInterval(sh, loc)
		if !ok || !end.After(now) {
			continue
		}
		out.NextShift = &NextShift{Shift: sh, IsToday: sh.Date == today}
		break
	}

	if open := snap.OpenTimesheet(userID); open != nil {
		sheet := *open
		out.ActiveTimesheet = &sheet
	}
	return out, nil
}

// Hours totals the week or calendar month containing date, today when empty.
func (s *DashboardService) Hours(ctx context.Context, principal Principal, userID, period, date string) (HoursSummary, error) {
	loc := s.location()
	if period == "" {
		period = PeriodWeek
	}
	vErr := &ValidationError{}
	if period != PeriodWeek && period != PeriodMonth {
		vErr.add("period", msgPeriodInvalid)
	}
	ref := s.now().In(loc)
	if date != "" {
		day, err := shifttime.ParseDate(date, loc)
		if err != nil {
			vErr.add("date", msgDateInvalid)
		}
		ref = day
	}
	if vErr.HasErrors() {
		return HoursSummary{}, vErr
	}
	if err := requireSelfOrEmployer(principal, userID); err != nil {
		return HoursSummary{}, err
	}

	snap, err := s.load(ctx)
	if err != nil {
		return HoursSummary{}, err
	}
	user := snap.User(userID)
	if user == nil {
		return HoursSummary{}, ErrNotFound
	}

	from, to := shifttime.WeekBounds(ref, loc)
	if period == PeriodMonth {
		from, to = shifttime.MonthBounds(ref, loc)
	}
	out := HoursSummary{
		UserID: userID,
		Period: period,
		From:   shifttime.FormatDate(from, loc),
		To:     shifttime.FormatDate(to.Add(-time.Nanosecond), loc),
	}
	out.WorkedMinutes, out.PlannedMinutes = totals(snap, userID, shiftsOf(snap, userID, loc), from, to, loc)
	out.Earnings = earnings(user.HourlyRate, out.PlannedMinutes, out.WorkedMinutes)
	return out, nil
}

func (s *DashboardService) monthlyTargetMinutes(user persistence.User) int {
	goal := s.settings.DefaultMonthlyGoalHours
	if user.MonthlyGoalHours != nil && *user.MonthlyGoalHours > 0 {
		goal = *user.MonthlyGoalHours
	}
	return int(math.Round(goal / 4 * 60))
}

// clockInStatus evaluates today's first shift that has not ended yet, or the
// last one when all of them are over.
func (s *DashboardService) clockInStatus(mine []persistence.Shift, today string, now time.Time, loc *time.Location) ClockInStatus {
	var (
		chosen     *persistence.Shift
		start, end time.Time
	)
	for i := range mine {
		sh := mine[i]
		if sh.Date != today {
			continue
		}
		from, to, ok := shiftInterval(sh, loc)
		if !ok {
			continue
		}
		chosen, start, end = &mine[i], from, to
		if !now.After(to) {
			break
		}
	}
	if chosen == nil {
		return NoShiftStatus()
	}
	status := EvaluateClockIn(now, start, end, s.settings.ClockInLead)
	status.ShiftID = chosen.ID
	return status
}

// shiftsOf returns the shifts held by userID in list order.
func shiftsOf(snap *persistence.Snapshot, userID string, loc *time.Location) []persistence.Shift {
	mine := make([]persistence.Shift, 0)
	for _, sh := range snap.Shifts {
		if sh.IsAssignedTo(userID) {
			mine = append(mine, sh)
		}
	}
	sortShifts(mine, loc)
	return mine
}

// totals sums worked minutes of closed timesheets clocked in within [from, to)
// and planned minutes of shifts dated within the same window.
func totals(snap *persistence.Snapshot, userID string, mine []persistence.Shift, from, to time.Time, loc *time.Location) (worked, planned int) {
	for _, ts := range snap.Timesheets {
		if ts.UserID != userID || ts.ClockOut == nil {
			continue
		}
		if ts.ClockIn.Before(from) || !ts.ClockIn.Before(to) {
			continue
		}
		worked += workedMinutes(ts)
	}

	first := shifttime.FormatDate(from, loc)
	last := shifttime.FormatDate(to.Add(-time.Nanosecond), loc)
	for _, sh := range mine {
		if shifttime.DateInRange(sh.Date, first, last) {
			planned += shiftMinutes(sh, loc)
		}
	}
	return worked, planned
}

func earnings(rate decimal.Decimal, plannedMinutes, workedMinutes int) Earnings {
	perMinute := func(minutes int) decimal.Decimal {
		return rate.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(60)).Round(2)
	}
	return Earnings{
		HourlyRate: rate,
		Planned:    perMinute(plannedMinutes),
		Worked:     perMinute(workedMinutes),
	}
}
