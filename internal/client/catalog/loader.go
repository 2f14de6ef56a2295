package catalog

import (
	"context"

	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/coin"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// Source コインパッケージ一覧の取得元
type Source interface {
	ListPackages(ctx context.Context) ([]*coin.Package, error)
}

// Loader 購入フローのセッションごとにカタログを取得する（無期限のキャッシュはしない）
type Loader struct {
	source Source
	policy fetch.Policy
	logger *otelinfra.Logger
}

// NewLoader 新しいLoaderを作成
func NewLoader(source Source, policy fetch.Policy, logger *otelinfra.Logger) *Loader {
	return &Loader{
		source: source,
		policy: policy,
		logger: logger,
	}
}

// Load パッケージ一覧を取得する。空の一覧は正常な結果として扱う
func (l *Loader) Load(ctx context.Context) ([]*coin.Package, error) {
	packages, err := fetch.Do(ctx, l.policy, l.source.ListPackages)
	if err != nil {
		l.logger.Warn(ctx, "Failed to load coin packages", map[string]interface{}{
			"error": err.Error(),
		})
		if walleterr.IsNetwork(err) || fetch.IsTemporary(err) {
			return nil, walleterr.Network(walleterr.KindCatalogUnavailable, err)
		}
		return nil, walleterr.New(walleterr.KindCatalogUnavailable, "", err)
	}
	if packages == nil {
		packages = []*coin.Package{}
	}
	return packages, nil
}
