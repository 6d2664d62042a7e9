package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/mergington-activities/metrics"
	"github.com/Dosada05/mergington-activities/models"
	"github.com/Dosada05/mergington-activities/repositories"
)

// SignupNotifier is told about every successful signup.
type SignupNotifier interface {
	NotifyRosterUpdated(activityName, email string, participants int)
}

// ActivityService lists activities and signs students up for them.
type ActivityService struct {
	repo     repositories.RosterRepository
	notifier SignupNotifier
	logger   *slog.Logger
}

// NewActivityService wires the service; notifier may be nil.
func NewActivityService(repo repositories.RosterRepository, notifier SignupNotifier, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// ListActivities returns the current roster as stored.
func (s *ActivityService) ListActivities(ctx context.Context) (models.Roster, error) {
	roster, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return roster, nil
}

func (s *ActivityService) GetActivity(ctx context.Context, name string) (*models.Activity, error) {
	roster, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	activity, ok := roster[name]
	if !ok {
		return nil, ErrActivityNotFound
	}
	return &activity, nil
}

// Signup appends email to the activity's participant list.
// Email comparison is exact; no normalisation or format check is applied,
// so the empty string is a valid email too.
func (s *ActivityService) Signup(ctx context.Context, activityName, email string) (*models.SignupResult, error) {
	var participants int
	_, err := s.repo.Update(ctx, func(roster models.Roster) error {
		activity, ok := roster[activityName]
		if !ok {
			return ErrActivityNotFound
		}
		if activity.HasParticipant(email) {
			return ErrAlreadySignedUp
		}
		activity.Participants = append(activity.Participants, email)
		roster[activityName] = activity
		participants = len(activity.Participants)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrActivityNotFound):
			metrics.SignupsTotal.WithLabelValues(metrics.SignupResultNotFound).Inc()
			return nil, err
		case errors.Is(err, ErrAlreadySignedUp):
			metrics.SignupsTotal.WithLabelValues(metrics.SignupResultAlreadyJoined).Inc()
			return nil, err
		default:
			metrics.SignupsTotal.WithLabelValues(metrics.SignupResultError).Inc()
			return nil, fmt.Errorf("failed to sign up %s for %s: %w", email, activityName, err)
		}
	}

	metrics.SignupsTotal.WithLabelValues(metrics.SignupResultSuccess).Inc()
	s.logger.InfoContext(ctx, "student signed up",
		slog.String("activity", activityName),
		slog.String("email", email),
		slog.Int("participants", participants),
	)
	if s.notifier != nil {
		s.notifier.NotifyRosterUpdated(activityName, email, participants)
	}

	return models.NewSignupResult(email, activityName), nil
}
