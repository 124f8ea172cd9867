// Package seed populates the database with demo data for local development.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"taleboard/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

var categories = []string{"Travel", "College", "Volunteering", "Sports", "Personal", "Internship"}

var branches = []string{"CSE", "ECE", "EEE", "Mechanical", "Civil", "Biotech"}

// Seeder writes demo users, profiles, tales and interactions.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new Seeder.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll wipes all domain tables. Dependents go first.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Like{}, &models.Comment{}, &models.Tale{},
		&models.Profile{}, &models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// SeedCommunity creates numUsers accounts with profiles, spreads numTales
// among them, and sprinkles likes and comments so feeds look lived-in.
func (s *Seeder) SeedCommunity(numUsers, numTales int) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user := &models.User{
			Email:    fmt.Sprintf("%s.%s%d@gitam.edu", strings.ToLower(gofakeit.FirstName()), strings.ToLower(gofakeit.LastName()), i),
			Password: string(hashed),
		}
		if err := s.db.Create(user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		profile := &models.Profile{
			UserID:   user.ID,
			FullName: gofakeit.Name(),
			Branch:   branches[rand.Intn(len(branches))],
			Bio:      gofakeit.Sentence(10),
		}
		if err := s.db.Create(profile).Error; err != nil {
			return fmt.Errorf("seed profile: %w", err)
		}
		users = append(users, user)
	}

	tales := make([]*models.Tale, 0, numTales)
	for i := 0; i < numTales; i++ {
		author := users[rand.Intn(len(users))]
		eventDate := gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
		tale := &models.Tale{
			UserID:      author.ID,
			Category:    categories[rand.Intn(len(categories))],
			Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
			Description: "<p>" + gofakeit.Paragraph(1, 3, 12, " ") + "</p>",
			Tags:        strings.Join([]string{gofakeit.Word(), gofakeit.Word()}, ","),
			EventDate:   &eventDate,
		}
		if err := s.db.Create(tale).Error; err != nil {
			return fmt.Errorf("seed tale: %w", err)
		}
		tales = append(tales, tale)
	}

	// Random likes and comments; duplicates are dropped by the unique
	// (user_id, tale_id) constraint.
	for _, tale := range tales {
		for i := 0; i < rand.Intn(5); i++ {
			liker := users[rand.Intn(len(users))]
			s.db.Where(models.Like{UserID: liker.ID, TaleID: tale.ID}).
				FirstOrCreate(&models.Like{UserID: liker.ID, TaleID: tale.ID})
		}
		for i := 0; i < rand.Intn(3); i++ {
			commenter := users[rand.Intn(len(users))]
			comment := &models.Comment{
				UserID:  commenter.ID,
				TaleID:  tale.ID,
				Content: gofakeit.Sentence(8),
			}
			if err := s.db.Create(comment).Error; err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}
		}
	}

	return nil
}
