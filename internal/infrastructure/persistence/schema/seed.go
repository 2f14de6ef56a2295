package schema

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPackages 初期カタログ
func DefaultPackages() []CoinPackage {
	return []CoinPackage{
		{PackageID: "starter", Name: "Starter", CoinAmount: 500, RupeePrice: decimal.NewFromInt(25), IsActive: true, SortOrder: 10},
		{PackageID: "value", Name: "Value", CoinAmount: 1000, BonusCoins: 50, RupeePrice: decimal.NewFromInt(50), IsActive: true, SortOrder: 20},
		{PackageID: "popular", Name: "Popular", CoinAmount: 2000, BonusCoins: 200, RupeePrice: decimal.NewFromInt(100), IsPopular: true, IsActive: true, SortOrder: 30},
		{PackageID: "mega", Name: "Mega", CoinAmount: 10000, BonusCoins: 1500, RupeePrice: decimal.NewFromInt(500), IsActive: true, SortOrder: 40},
	}
}

// DefaultTasks 新規ユーザーに用意する報酬タスク
func DefaultTasks(userID string) []RewardTask {
	return []RewardTask{
		{UserID: userID, TaskID: "daily_login", Title: "Daily login", Description: "Open the app today", Reward: 10, SortOrder: 10},
		{UserID: userID, TaskID: "complete_profile", Title: "Complete your profile", Description: "Add your name, email and contact number", Reward: 50, SortOrder: 20},
		{
			UserID: userID, TaskID: "read_5_chapters", Title: "Read 5 chapters", Description: "Finish five chapters of any series", Reward: 100,
			ProgressCurrent: sql.NullInt64{Int64: 0, Valid: true}, ProgressTarget: sql.NullInt64{Int64: 5, Valid: true}, SortOrder: 30,
		},
	}
}

// SeedPackages パッケージを登録する。既存のパッケージは変更しない
func SeedPackages(db *gorm.DB, packages []CoinPackage) (int64, error) {
	if len(packages) == 0 {
		return 0, nil
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&packages)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed packages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SeedTasks ユーザーの報酬タスクを登録する。既存のタスクは変更しない
func SeedTasks(db *gorm.DB, tasks []RewardTask) (int64, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tasks)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed reward tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}
