package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/config"
	"example.com/household-ledger/internal/models"
	"example.com/household-ledger/internal/repository"
)

// Seed наполняет пустую базу стартовыми данными: администратор, два
// участника домохозяйства и справочник категорий. Повторный запуск на
// непустой базе — no-op.
func Seed(ctx context.Context, db *pgxpool.Pool, cfg config.SeedConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if err := seedUsers(ctx, repository.NewUserRepository(db), cfg); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := seedCategories(ctx, repository.NewCategoryRepository(db)); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func seedUsers(ctx context.Context, users *repository.UserRepository, cfg config.SeedConfig) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	adminHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	memberHash, err := auth.HashPassword(cfg.MemberPassword)
	if err != nil {
		return err
	}

	// Пароли временные: первый вход потребует смены.
	seeded := []models.User{
		{
			ID:                 uuid.New(),
			Username:           "admin",
			PasswordHash:       adminHash,
			DisplayName:        cfg.AdminDisplayName,
			IsAdmin:            true,
			MustChangePassword: true,
		},
		{
			ID:                 uuid.New(),
			Username:           cfg.MemberOneLogin,
			PasswordHash:       memberHash,
			DisplayName:        cfg.MemberOneName,
			MustChangePassword: true,
		},
		{
			ID:                 uuid.New(),
			Username:           cfg.MemberTwoLogin,
			PasswordHash:       memberHash,
			DisplayName:        cfg.MemberTwoName,
			MustChangePassword: true,
		},
	}

	for i := range seeded {
		if err := users.Create(ctx, &seeded[i]); err != nil {
			return err
		}
	}

	slog.Info("seeded household users",
		slog.String("member_one", cfg.MemberOneLogin),
		slog.String("member_two", cfg.MemberTwoLogin),
	)
	return nil
}

func seedCategories(ctx context.Context, categories *repository.CategoryRepository) error {
	count, err := categories.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Category{
		{Name: "Rent", Icon: "building"},
		{Name: "Utilities", Icon: "receipt"},
		{Name: "Groceries", Icon: "shopping-cart"},
		{Name: "Home", Icon: "home"},
		{Name: "Entertainment", Icon: "gamepad"},
		{Name: "Transport", Icon: "car"},
		{Name: "Health", Icon: "heart-pulse"},
		{Name: "Clothing", Icon: "shirt"},
		{Name: "Dining", Icon: "utensils"},
		{Name: "Other", Icon: "ellipsis"},
	}

	for i := range defaults {
		defaults[i].ID = uuid.New()
		if err := categories.Create(ctx, &defaults[i]); err != nil {
			return err
		}
	}

	slog.Info("seeded default categories", slog.Int("count", len(defaults)))
	return nil
}
