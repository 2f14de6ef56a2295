package coin

import (
	"context"
)

// PackageRepository コインパッケージリポジトリインターフェース
type PackageRepository interface {
	// FindActive 販売中のパッケージを表示順で取得
	FindActive(ctx context.Context) ([]*Package, error)

	// FindByID パッケージIDで販売中のパッケージを取得
	FindByID(ctx context.Context, packageID string) (*Package, error)
}
