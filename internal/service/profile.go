package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"taleboard/models"
	"taleboard/repository"
)

// ProfileService reads and saves user profiles and derives the display
// fields the feed renders for every author.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
}

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repository.ProfileRepository, userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, userRepo: userRepo}
}

// ProfileView is the profile as rendered: stored fields plus the derived
// display name and a guaranteed non-empty avatar URL.
type ProfileView struct {
	UserID      uint   `json:"id"`
	FullName    string `json:"full_name"`
	Branch      string `json:"branch"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	DisplayName string `json:"display_name"`
}

// SaveProfileInput carries the settings form fields.
type SaveProfileInput struct {
	FullName  string `json:"full_name"`
	Branch    string `json:"branch"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// Get returns the user's profile view. A user who has never saved their
// settings gets defaults derived from their email, not an error.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.Profile{UserID: userID}
	}

	return s.view(profile, user.Email), nil
}

// Save upserts the user's profile and returns the resulting view.
func (s *ProfileService) Save(ctx context.Context, userID uint, input SaveProfileInput) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID:    userID,
		FullName:  strings.TrimSpace(input.FullName),
		Branch:    strings.TrimSpace(input.Branch),
		Bio:       strings.TrimSpace(input.Bio),
		AvatarURL: strings.TrimSpace(input.AvatarURL),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	return s.view(profile, user.Email), nil
}

func (s *ProfileService) view(profile *models.Profile, email string) *ProfileView {
	name := DisplayName(profile.FullName, email)
	avatar := profile.AvatarURL
	if avatar == "" {
		avatar = PlaceholderAvatarURL(name)
	}
	return &ProfileView{
		UserID:      profile.UserID,
		FullName:    profile.FullName,
		Branch:      profile.Branch,
		Bio:         profile.Bio,
		AvatarURL:   avatar,
		DisplayName: name,
	}
}

// DisplayName picks the name shown next to a user's content: the profile's
// full name, falling back to the local part of their email, falling back to
// "User".
func DisplayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "User"
}

// PlaceholderAvatarURL builds the generated avatar used when a user has not
// set one: a colored tile showing the first letter of their display name.
func PlaceholderAvatarURL(displayName string) string {
	initial := "U"
	for _, r := range displayName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			initial = strings.ToUpper(string(r))
			break
		}
	}
	return fmt.Sprintf("https://placehold.co/100x100/e0e7ff/3730a3?text=%s", url.QueryEscape(initial))
}
