package seed

import (
	"fmt"
	"os"
	"time"

	"taleboard/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Manifest is a hand-authored seed file: exact accounts and tales instead of
// random ones. Useful for demos that need recognizable content.
type Manifest struct {
	Users []ManifestUser `yaml:"users"`
}

// ManifestUser declares one account with its profile and tales.
type ManifestUser struct {
	Email    string         `yaml:"email"`
	Password string         `yaml:"password"`
	FullName string         `yaml:"full_name"`
	Branch   string         `yaml:"branch"`
	Bio      string         `yaml:"bio"`
	Tales    []ManifestTale `yaml:"tales"`
}

// ManifestTale declares one tale. EventDate uses YYYY-MM-DD.
type ManifestTale struct {
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Tags        string `yaml:"tags"`
	EventDate   string `yaml:"event_date"`
}

// LoadManifest reads and parses a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// ApplyManifest creates the manifest's accounts, profiles and tales.
func (s *Seeder) ApplyManifest(m *Manifest) error {
	for _, mu := range m.Users {
		password := mu.Password
		if password == "" {
			password = DefaultPassword
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := &models.User{Email: mu.Email, Password: string(hashed)}
		if err := s.db.Create(user).Error; err != nil {
			return fmt.Errorf("manifest user %s: %w", mu.Email, err)
		}

		profile := &models.Profile{
			UserID:   user.ID,
			FullName: mu.FullName,
			Branch:   mu.Branch,
			Bio:      mu.Bio,
		}
		if err := s.db.Create(profile).Error; err != nil {
			return fmt.Errorf("manifest profile %s: %w", mu.Email, err)
		}

		for _, mt := range mu.Tales {
			tale := &models.Tale{
				UserID:      user.ID,
				Category:    mt.Category,
				Title:       mt.Title,
				Description: mt.Description,
				Tags:        mt.Tags,
			}
			if mt.EventDate != "" {
				if parsed, err := time.Parse("2006-01-02", mt.EventDate); err == nil {
					tale.EventDate = &parsed
				}
			}
			if err := s.db.Create(tale).Error; err != nil {
				return fmt.Errorf("manifest tale %q: %w", mt.Title, err)
			}
		}
	}
	return nil
}
