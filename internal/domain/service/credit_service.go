package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coin-wallet/internal/domain/transaction"
	"coin-wallet/internal/domain/wallet"
)

// CreditRequest コイン付与リクエスト
type CreditRequest struct {
	UserID      string
	Type        transaction.TransactionType
	Coins       int64
	RupeeAmount *decimal.Decimal
	Description string
	ReferenceID string
	// InTx 付与と同じDBトランザクション内で実行する処理（決済やタスクの確定など）
	InTx func(ctx context.Context, txn *transaction.Transaction) error
}

// CreditResult コイン付与結果
type CreditResult struct {
	Transaction  *transaction.Transaction
	BalanceAfter int64
}

// CreditService 残高への加算と台帳への記録を1つのDBトランザクションで行うドメインサービス
type CreditService struct {
	walletRepo      wallet.WalletRepository
	transactionRepo transaction.TransactionRepository
	txManager       transaction.TransactionManager
	maxRetries      uint
	initialBackoff  time.Duration
}

// NewCreditService 新しいCreditServiceを作成
func NewCreditService(
	walletRepo wallet.WalletRepository,
	transactionRepo transaction.TransactionRepository,
	txManager transaction.TransactionManager,
) *CreditService {
	return &CreditService{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		maxRetries:      3,
		initialBackoff:  10 * time.Millisecond,
	}
}

// Credit コインを付与する。楽観的ロックの競合時は指数バックオフで再試行する
func (s *CreditService) Credit(ctx context.Context, req CreditRequest) (*CreditResult, error) {
	if !req.Type.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a credit type", transaction.ErrInvalidTransaction, req.Type)
	}

	transactionID := NewTransactionID()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff

	return backoff.Retry(ctx, func() (*CreditResult, error) {
		result, err := s.creditOnce(ctx, transactionID, req)
		if err != nil {
			if errors.Is(err, wallet.ErrVersionConflict) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return result, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxRetries))
}

func (s *CreditService) creditOnce(ctx context.Context, transactionID string, req CreditRequest) (*CreditResult, error) {
	var result *CreditResult

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		w, err := s.walletRepo.FindByUserID(ctx, req.UserID)
		if err != nil && !errors.Is(err, wallet.ErrWalletNotFound) {
			return fmt.Errorf("failed to find wallet: %w", err)
		}

		if w == nil {
			// ウォレットが存在しない場合は作成
			w, err = wallet.NewWallet(req.UserID, 0, 0)
			if err != nil {
				return fmt.Errorf("failed to create wallet entity: %w", err)
			}
			if err := s.walletRepo.Create(ctx, w); err != nil {
				return fmt.Errorf("failed to create wallet: %w", err)
			}
		}

		if err := w.Credit(req.Coins); err != nil {
			return err
		}

		// 保存（楽観的ロック）
		if err := s.walletRepo.Save(ctx, w); err != nil {
			return err
		}

		txn, err := transaction.NewTransaction(
			transactionID,
			req.UserID,
			req.Type,
			req.Coins,
			req.RupeeAmount,
			transaction.TransactionStatusCompleted,
			req.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to create transaction entity: %w", err)
		}
		if req.ReferenceID != "" {
			txn.SetReferenceID(req.ReferenceID)
		}

		if err := s.transactionRepo.Save(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		if req.InTx != nil {
			if err := req.InTx(ctx, txn); err != nil {
				return err
			}
		}

		result = &CreditResult{
			Transaction:  txn,
			BalanceAfter: w.Balance(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NewTransactionID トランザクションIDを生成
func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}
