package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo employer, employees and a week of shifts",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type demoAccount struct {
	username   string
	password   string
	name       string
	employer   bool
	positions  []string
	hourlyRate string
}

var demoAccounts = []demoAccount{
	{username: "szef", password: "szef1234", name: "Jan Kowalski", employer: true, hourlyRate: "45.00"},
	{username: "anna", password: "anna1234", name: "Anna Nowak", positions: []string{"barista"}, hourlyRate: "30.00"},
	{username: "piotr", password: "piotr1234", name: "Piotr Wiśniewski", positions: []string{"kelner"}, hourlyRate: "29.50"},
	{username: "kasia", password: "kasia1234", name: "Katarzyna Wójcik", positions: []string{"barista", "kelner"}, hourlyRate: "31.00"},
}

type demoShift struct {
	start, end shifttime.Value
	role       string
	// assignee indexes demoAccounts; negative leaves the shift open.
	assignee int
}

var demoDay = []demoShift{
	{start: shifttime.Local(7, 0), end: shifttime.Local(15, 0), role: "barista", assignee: 1},
	{start: shifttime.Local(11, 0), end: shifttime.Local(19, 0), role: "kelner", assignee: 2},
	{start: shifttime.Local(14, 0), end: shifttime.Local(22, 0), role: "barista", assignee: -1},
}

// seedOptions controls the generated demo document.
type seedOptions struct {
	now      time.Time
	location *time.Location
	days     int
	newID    func() string
	hash     func(string) (string, error)
	company  persistence.Company
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	seeded, err := seedDemoData(ctx, store, seedOptions{
		now:      time.Now(),
		location: cfg.Location(),
		days:     7,
		newID:    uuid.NewString,
		hash:     application.HashPassword,
		company:  companyFrom(cfg),
	})
	if err != nil {
		return err
	}
	if !seeded {
		logger.Info("document already holds users or shifts, nothing seeded")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Demo accounts:")
	for _, acc := range demoAccounts {
		fmt.Fprintf(out, "  %-8s %s\n", acc.username, acc.password)
	}
	return nil
}

// seedDemoData fills an empty document with demo accounts and opts.days of
// shifts starting today. It reports false and writes nothing when the
// document already holds users or shifts.
func seedDemoData(ctx context.Context, store persistence.Store, opts seedOptions) (bool, error) {
	if opts.location == nil {
		opts.location = time.UTC
	}
	if opts.days <= 0 {
		opts.days = 7
	}

	var seeded bool
	err := store.Update(ctx, func(snap *persistence.Snapshot) error {
		if len(snap.Users) > 0 || len(snap.Shifts) > 0 {
			return nil
		}
		stamp := opts.now.UTC()

		ids := make([]string, len(demoAccounts))
		for i, acc := range demoAccounts {
			hashed, err := opts.hash(acc.password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", acc.username, err)
			}
			positions := acc.positions
			if positions == nil {
				positions = []string{}
			}
			ids[i] = opts.newID()
			snap.Users = append(snap.Users, persistence.User{
				ID:            ids[i],
				Username:      acc.username,
				Password:      hashed,
				Name:          acc.name,
				IsEmployer:    acc.employer,
				HourlyRate:    decimal.RequireFromString(acc.hourlyRate),
				Positions:     positions,
				Notifications: persistence.NotificationPreferences{Shifts: true, Swaps: true, Reminders: true},
				CreatedAt:     stamp,
				UpdatedAt:     stamp,
			})
		}

		today := opts.now.In(opts.location)
		for d := 0; d < opts.days; d++ {
			date := today.AddDate(0, 0, d).Format(time.DateOnly)
			for _, tmpl := range demoDay {
				var assigned *string
				if tmpl.assignee >= 0 {
					id := ids[tmpl.assignee]
					assigned = &id
				}
				snap.Shifts = append(snap.Shifts, persistence.Shift{
					ID:             opts.newID(),
					Date:           date,
					Start:          tmpl.start,
					End:            tmpl.end,
					Role:           tmpl.role,
					Location:       opts.company.Location.Name,
					AssignedUserID: assigned,
					CreatedAt:      stamp,
					UpdatedAt:      stamp,
				})
			}
		}

		if snap.Company.IsZero() {
			snap.Company = opts.company
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed document: %w", err)
	}
	return seeded, nil
}
