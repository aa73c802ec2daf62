// Package link generates and resolves reviewable suggestions that connect
// local employees to external directory accounts by fuzzy name similarity.
package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/matcher"
)

// DefaultThreshold is the minimum similarity score a suggestion needs to be
// persisted, unless configured otherwise.
const DefaultThreshold = 80

var (
	// ErrSuggestionNotFound is returned when the referenced suggestion does not exist.
	ErrSuggestionNotFound = errors.New("link suggestion not found")

	// ErrIdentityMissing is returned by Accept when the referenced employee has
	// no identity; accepting updates an identity, it never creates one.
	ErrIdentityMissing = errors.New("employee has no identity to link")
)

// Directory opens authenticated sessions against the external directory.
type Directory interface {
	Connect() (directory.Session, error)
}

// Service runs the suggestion analysis and resolves individual suggestions.
type Service struct {
	db        *gorm.DB
	dir       Directory
	threshold int
}

// New creates a link suggestion service. A non-positive threshold falls back
// to DefaultThreshold.
func New(db *gorm.DB, dir Directory, threshold int) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Service{db: db, dir: dir, threshold: threshold}
}

// RunAnalysis regenerates the full suggestion set: all existing suggestions
// are deleted, every employee with an identity whose username is unset or
// unknown to the directory is matched against all directory accounts, and
// matches at or above the threshold are persisted. All account data is
// fetched in one bulk search up front to bound network round-trips.
// Returns the number of suggestions created.
func (s *Service) RunAnalysis() (int, error) {
	sess, err := s.dir.Connect()
	if err != nil {
		return 0, err
	}

	defer sess.Close()

	entries, err := sess.Search(
		"(&(objectClass=user)(sAMAccountName=*))",
		[]string{"sAMAccountName", "displayName"},
	)
	if err != nil {
		return 0, fmt.Errorf("bulk account search: %w", err)
	}

	var (
		candidates     = make([]matcher.Candidate, 0, len(entries))
		knownUsernames = make(map[string]struct{}, len(entries))
	)

	for _, entry := range entries {
		username := entry.GetAttributeValue("sAMAccountName")
		if username == "" {
			continue
		}

		knownUsernames[strings.ToLower(username)] = struct{}{}

		candidates = append(candidates, matcher.Candidate{
			Username:    username,
			DisplayName: entry.GetAttributeValue("displayName"),
		})
	}

	var employees []models.Employee

	err = s.db.
		Joins("JOIN identities ON identities.employee_id = employees.id").
		Preload("Identity").
		Find(&employees).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load employees with identities: %w", err)
	}

	created := 0

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Full replace: every run starts from a clean slate.
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.LinkSuggestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous suggestions: %w", err)
		}

		for i := range employees {
			employee := &employees[i]

			// Skip employees whose username already matches a directory account.
			if employee.Identity != nil && employee.Identity.Username != "" {
				if _, known := knownUsernames[strings.ToLower(employee.Identity.Username)]; known {
					continue
				}
			}

			best, score := matcher.BestMatch(employee.Name, candidates)
			if best == nil || score < s.threshold {
				continue
			}

			suggestion := models.LinkSuggestion{
				EmployeeID:           employee.ID,
				EmployeeName:         employee.Name,
				DirectoryUsername:    best.Username,
				DirectoryDisplayName: best.DisplayName,
				Score:                score,
			}

			if err := tx.Create(&suggestion).Error; err != nil {
				return fmt.Errorf("failed to create suggestion for employee %d: %w", employee.ID, err)
			}

			created++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int("suggestions", created).Int("accounts", len(candidates)).
		Msg("link analysis completed")

	return created, nil
}

// Accept links the suggestion's directory username to the identity of the
// referenced employee and deletes the suggestion. The identity must already
// exist; accepting updates, it never creates.
func (s *Service) Accept(suggestionID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var suggestion models.LinkSuggestion

		err := tx.First(&suggestion, suggestionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSuggestionNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load suggestion: %w", err)
		}

		var identity models.Identity

		err = tx.Where("employee_id = ?", suggestion.EmployeeID).First(&identity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIdentityMissing
		}

		if err != nil {
			return fmt.Errorf("failed to load identity: %w", err)
		}

		if err := tx.Model(&identity).
			Update("username", suggestion.DirectoryUsername).Error; err != nil {
			return fmt.Errorf("failed to link identity: %w", err)
		}

		if err := tx.Delete(&suggestion).Error; err != nil {
			return fmt.Errorf("failed to delete accepted suggestion: %w", err)
		}

		return nil
	})
}

// Reject deletes the suggestion; nothing else changes.
func (s *Service) Reject(suggestionID uint64) error {
	result := s.db.Delete(&models.LinkSuggestion{}, suggestionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete suggestion: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrSuggestionNotFound
	}

	return nil
}

// Pending returns all suggestions awaiting review, highest score first.
func (s *Service) Pending() ([]models.LinkSuggestion, error) {
	var suggestions []models.LinkSuggestion

	if err := s.db.Order("score DESC").Find(&suggestions).Error; err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	return suggestions, nil
}
