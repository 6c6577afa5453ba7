package admin

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview is the dashboard summary computed from the live collections.
type Overview struct {
	TotalUsers             int                `json:"totalUsers"`
	TotalSessions          int                `json:"totalSessions"`
	TotalRegistrations     int                `json:"totalRegistrations"`
	CompletedRegistrations int                `json:"completedRegistrations"`
	PaidRegistrations      int                `json:"paidRegistrations"`
	AverageScore           float64            `json:"averageScore"`   // over completed registrations
	CompletionRate         float64            `json:"completionRate"` // 0 when there are no registrations
	SessionsByDifficulty   map[Difficulty]int `json:"sessionsByDifficulty"`
}

// Overview fetches the three collections concurrently and summarises them.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		users         []User
		sessions      []TrainingSession
		registrations []Registration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.Users.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		sessions, err = s.Sessions.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		registrations, err = s.Registrations.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return Summarise(users, sessions, registrations), nil
}

// Summarise computes an Overview from already fetched collections.
func Summarise(users []User, sessions []TrainingSession, registrations []Registration) Overview {
	o := Overview{
		TotalUsers:           len(users),
		TotalSessions:        len(sessions),
		TotalRegistrations:   len(registrations),
		SessionsByDifficulty: map[Difficulty]int{},
	}
	for _, s := range sessions {
		if s.Scenario.Difficulty != "" {
			o.SessionsByDifficulty[s.Scenario.Difficulty]++
		}
	}

	var scoreSum float64
	for _, r := range registrations {
		if r.Paid {
			o.PaidRegistrations++
		}
		if r.Completed {
			o.CompletedRegistrations++
			scoreSum += r.Score
		}
	}
	if o.CompletedRegistrations > 0 {
		o.AverageScore = scoreSum / float64(o.CompletedRegistrations)
	}
	if o.TotalRegistrations > 0 {
		o.CompletionRate = float64(o.CompletedRegistrations) / float64(o.TotalRegistrations)
	}
	return o
}
