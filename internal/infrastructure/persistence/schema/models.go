package schema

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet ウォレット（残高と楽観的ロックのバージョン）
type Wallet struct {
	UserID    string    `gorm:"column:user_id;type:varchar(255);primaryKey"`
	Balance   int64     `gorm:"column:balance;not null;default:0"`
	Version   int       `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName テーブル名
func (Wallet) TableName() string { return "wallets" }

// Transaction 台帳レコード（符号は持たず、タイプから決まる）
type Transaction struct {
	TransactionID      string               `gorm:"column:transaction_id;type:varchar(64);primaryKey"`
	UserID             string               `gorm:"column:user_id;type:varchar(255);not null;index:idx_transactions_user_created,priority:1;uniqueIndex:uq_transactions_reference,priority:1"`
	TransactionType    string               `gorm:"column:transaction_type;type:varchar(16);not null;uniqueIndex:uq_transactions_reference,priority:2"`
	CoinAmount         int64                `gorm:"column:coin_amount;not null"`
	RupeeAmount        decimal.NullDecimal  `gorm:"column:rupee_amount;type:decimal(12,2)"`
	Status             string               `gorm:"column:status;type:varchar(16);not null"`
	RelatedContentType sql.NullString       `gorm:"column:related_content_type;type:varchar(64)"`
	RelatedContentID   sql.NullString       `gorm:"column:related_content_id;type:varchar(64)"`
	ReferenceID        sql.NullString       `gorm:"column:reference_id;type:varchar(64);uniqueIndex:uq_transactions_reference,priority:3"`
	Description        string               `gorm:"column:description;type:varchar(255);not null;default:''"`
	CreatedAt          time.Time            `gorm:"column:created_at;not null;index:idx_transactions_user_created,priority:2"`
}

// TableName テーブル名
func (Transaction) TableName() string { return "transactions" }

// CoinPackage 販売するコインパッケージ
type CoinPackage struct {
	PackageID  string          `gorm:"column:package_id;type:varchar(64);primaryKey"`
	Name       string          `gorm:"column:name;type:varchar(100);not null"`
	CoinAmount int64           `gorm:"column:coin_amount;not null"`
	BonusCoins int64           `gorm:"column:bonus_coins;not null;default:0"`
	RupeePrice decimal.Decimal `gorm:"column:rupee_price;type:decimal(12,2);not null"`
	IsPopular  bool            `gorm:"column:is_popular;not null;default:false"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true;index"`
	SortOrder  int             `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName テーブル名
func (CoinPackage) TableName() string { return "coin_packages" }

// Payment ゲートウェイ決済
type Payment struct {
	OrderID        string          `gorm:"column:order_id;type:varchar(64);primaryKey"`
	UserID         string          `gorm:"column:user_id;type:varchar(255);not null;index"`
	PackageID      sql.NullString  `gorm:"column:package_id;type:varchar(64)"`
	Coins          int64           `gorm:"column:coins;not null"`
	RupeeAmount    decimal.Decimal `gorm:"column:rupee_amount;type:decimal(12,2);not null"`
	Status         string          `gorm:"column:status;type:varchar(16);not null;index:idx_payments_status_created,priority:1"`
	GatewayMessage string          `gorm:"column:gateway_message;type:varchar(255);not null;default:''"`
	SnapToken      string          `gorm:"column:snap_token;type:varchar(255);not null;default:''"`
	RedirectURL    string          `gorm:"column:redirect_url;type:varchar(512);not null;default:''"`
	TransactionID  sql.NullString  `gorm:"column:transaction_id;type:varchar(64)"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index:idx_payments_status_created,priority:2"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null"`
}

// TableName テーブル名
func (Payment) TableName() string { return "payments" }

// RewardTask ユーザーごとの報酬タスク
type RewardTask struct {
	UserID          string        `gorm:"column:user_id;type:varchar(255);primaryKey"`
	TaskID          string        `gorm:"column:task_id;type:varchar(64);primaryKey"`
	Title           string        `gorm:"column:title;type:varchar(100);not null"`
	Description     string        `gorm:"column:description;type:varchar(255);not null;default:''"`
	Reward          int64         `gorm:"column:reward;not null"`
	ProgressCurrent sql.NullInt64 `gorm:"column:progress_current"`
	ProgressTarget  sql.NullInt64 `gorm:"column:progress_target"`
	Completed       bool          `gorm:"column:completed;not null;default:false"`
	ClaimedAt       sql.NullTime  `gorm:"column:claimed_at"`
	SortOrder       int           `gorm:"column:sort_order;not null;default:0"`
}

// TableName テーブル名
func (RewardTask) TableName() string { return "reward_tasks" }

// Models マイグレーション対象のモデル
func Models() []interface{} {
	return []interface{}{
		&Wallet{},
		&Transaction{},
		&CoinPackage{},
		&Payment{},
		&RewardTask{},
	}
}
