package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/coin"
)

// PackageRepository MySQL実装のPackageRepository
type PackageRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPackageRepository 新しいPackageRepositoryを作成
func NewPackageRepository(db *DB) *PackageRepository {
	return &PackageRepository{
		db:     db,
		tracer: otel.Tracer("package-repository"),
	}
}

// FindActive 販売中のパッケージを表示順で取得
func (r *PackageRepository) FindActive(ctx context.Context) ([]*coin.Package, error) {
	ctx, span := r.tracer.Start(ctx, "PackageRepository.FindActive")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "coin_packages"),
	)

	query := `
		SELECT package_id, name, coin_amount, bonus_coins, rupee_price, is_popular
		FROM coin_packages
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, package_id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	packages := []*coin.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate packages: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(packages)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d packages", len(packages)))
	return packages, nil
}

// FindByID パッケージIDで販売中のパッケージを取得
func (r *PackageRepository) FindByID(ctx context.Context, packageID string) (*coin.Package, error) {
	ctx, span := r.tracer.Start(ctx, "PackageRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.package_id", packageID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "coin_packages"),
	)

	query := `
		SELECT package_id, name, coin_amount, bonus_coins, rupee_price, is_popular
		FROM coin_packages
		WHERE package_id = ? AND is_active = TRUE
	`

	p, err := scanPackage(r.db.conn(ctx).QueryRowContext(ctx, query, packageID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "package not found")
		return nil, coin.ErrPackageNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "package found")
	return p, nil
}

func scanPackage(row rowScanner) (*coin.Package, error) {
	var id, name, price string
	var coinAmount, bonusCoins int64
	var isPopular bool

	if err := row.Scan(&id, &name, &coinAmount, &bonusCoins, &price, &isPopular); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}

	rupeePrice, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid rupee price for package %s: %w", id, err)
	}

	p, err := coin.NewPackage(id, name, coinAmount, bonusCoins, rupeePrice, isPopular)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct package entity: %w", err)
	}
	return p, nil
}
