package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"coin-wallet/internal/client/ledger"
	"coin-wallet/internal/client/reward"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/transaction"
)

// GetBalance 残高を取得する
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/balance", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// ListPackages 購入可能なコインパッケージを取得する
func (c *Client) ListPackages(ctx context.Context) ([]*coin.Package, error) {
	var resp packagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/coins/packages", nil, nil, &resp); err != nil {
		return nil, err
	}

	packages := make([]*coin.Package, 0, len(resp.Packages))
	for _, item := range resp.Packages {
		price, err := decimal.NewFromString(item.RupeePrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price of package %s: %w", item.PackageID, err)
		}
		pkg, err := coin.NewPackage(item.PackageID, item.Name, item.CoinAmount, item.BonusCoins, price, item.IsPopular)
		if err != nil {
			return nil, fmt.Errorf("failed to decode package %s: %w", item.PackageID, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// ListTransactions 取引履歴を取得する
func (c *Client) ListTransactions(ctx context.Context, filter transaction.Filter, page, limit int) (*ledger.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if filter.Type != nil {
		query.Set("type", filter.Type.String())
	}
	if filter.From != nil {
		query.Set("from", filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query.Set("to", filter.To.UTC().Format(time.RFC3339))
	}

	var resp transactionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/transactions", query, nil, &resp); err != nil {
		return nil, err
	}

	txs := make([]*transaction.Transaction, 0, len(resp.Transactions))
	for _, item := range resp.Transactions {
		tx, err := decodeTransaction(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction %s: %w", item.TransactionID, err)
		}
		txs = append(txs, tx)
	}

	return &ledger.Page{
		Transactions: txs,
		Cursor: transaction.PaginationCursor{
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			Total:      resp.Pagination.Total,
			TotalPages: resp.Pagination.TotalPages,
			HasMore:    resp.Pagination.HasMore,
		},
	}, nil
}

func decodeTransaction(item transactionItem) (*transaction.Transaction, error) {
	txType, err := transaction.NewTransactionType(item.Type)
	if err != nil {
		return nil, err
	}
	status, err := transaction.NewTransactionStatus(item.Status)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	var rupees *decimal.Decimal
	if item.RupeeAmount != "" {
		d, err := decimal.NewFromString(item.RupeeAmount)
		if err != nil {
			return nil, err
		}
		rupees = &d
	}

	tx, err := transaction.NewTransactionAt(item.TransactionID, item.UserID, txType, item.CoinAmount, rupees, status, item.Description, createdAt)
	if err != nil {
		return nil, err
	}
	if item.ReferenceID != "" {
		tx.SetReferenceID(item.ReferenceID)
	}
	return tx, nil
}

// ListTasks 報酬タスクを取得する
func (c *Client) ListTasks(ctx context.Context) ([]reward.Task, error) {
	var resp tasksResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/tasks", nil, nil, &resp); err != nil {
		return nil, err
	}

	tasks := make([]reward.Task, len(resp.Tasks))
	for i, item := range resp.Tasks {
		tasks[i] = reward.Task{
			ID:          item.TaskID,
			Title:       item.Title,
			Description: item.Description,
			Reward:      item.Reward,
			Completed:   item.Completed,
		}
		if item.Progress != nil {
			tasks[i].Progress = &reward.Progress{Current: item.Progress.Current, Target: item.Progress.Target}
		}
	}
	return tasks, nil
}

// ClaimTask タスクの報酬を受け取る
func (c *Client) ClaimTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/me/tasks/"+url.PathEscape(taskID)+"/claim", nil, nil, nil)
}
