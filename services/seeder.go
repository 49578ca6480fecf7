package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/hsakai/skillview/backend/models"
	"github.com/hsakai/skillview/backend/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []models.User{
		{
			Email:    "test@example.com",
			Password: string(hashedPassword),
			FullName: "Test User",
		},
		{
			Email:    "demo@example.com",
			Password: string(hashedPassword),
			FullName: "Demo User",
		},
	}

	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	testUser, err := s.repo.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		return fmt.Errorf("failed to get test user: %w", err)
	}
	if testUser == nil {
		return fmt.Errorf("test user not found")
	}

	demoProfile := models.SkillProfile{
		UserID:  testUser.ID,
		Title:   "Full Stack Developer",
		Summary: "Five years building web applications end to end, from React frontends to Go and Node.js services on AWS.",
		Skills: []models.Skill{
			{Name: "React", Category: "frontend", Level: "advanced", Years: 5},
			{Name: "TypeScript", Category: "frontend", Level: "advanced", Years: 4},
			{Name: "Go", Category: "backend", Level: "intermediate", Years: 3},
			{Name: "PostgreSQL", Category: "database", Level: "intermediate", Years: 5},
			{Name: "AWS", Category: "infrastructure", Level: "intermediate", Years: 3},
		},
	}

	if err := s.seedProfile(ctx, demoProfile); err != nil {
		slog.Error("Failed to seed skill profile", "title", demoProfile.Title, "error", err)
	}

	slog.Info("Database seeding completed")
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}

	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

// seedProfile seeds a single skill profile (idempotent, matched by title)
func (s *DatabaseSeeder) seedProfile(ctx context.Context, profile models.SkillProfile) error {
	profiles, err := s.repo.GetSkillProfiles(ctx, profile.UserID)
	if err != nil {
		return fmt.Errorf("error checking profiles: %w", err)
	}

	for _, existing := range profiles {
		if existing.Title == profile.Title {
			slog.Info("Skill profile already exists, skipping", "title", profile.Title)
			return nil
		}
	}

	if err := s.repo.CreateSkillProfile(ctx, &profile); err != nil {
		return fmt.Errorf("failed to create skill profile %s: %w", profile.Title, err)
	}

	slog.Info("Created skill profile", "title", profile.Title, "user_id", profile.UserID)
	return nil
}
