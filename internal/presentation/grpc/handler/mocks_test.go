package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	paymentapp "coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/purchase"
	"coin-wallet/internal/domain/reward"
	"coin-wallet/internal/domain/service"
	"coin-wallet/internal/domain/transaction"
	"coin-wallet/internal/domain/wallet"
)

// MockWalletRepository モックウォレットリポジトリ
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	return m.Called(ctx, w).Error(0)
}

// MockPackageRepository モックパッケージリポジトリ
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) FindActive(ctx context.Context) ([]*coin.Package, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*coin.Package), args.Error(1)
}

func (m *MockPackageRepository) FindByID(ctx context.Context, packageID string) (*coin.Package, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coin.Package), args.Error(1)
}

// MockTransactionRepository モックトランザクションリポジトリ
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Save(ctx context.Context, t *transaction.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByUserID(ctx context.Context, userID string, filter transaction.Filter, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByUserID(ctx context.Context, userID string, filter transaction.Filter) (int, error) {
	args := m.Called(ctx, userID, filter)
	return args.Int(0), args.Error(1)
}

// MockPaymentRepository モック決済リポジトリ
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *purchase.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*purchase.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *purchase.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) UpdateCheckout(ctx context.Context, p *purchase.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]*purchase.Payment, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*purchase.Payment), args.Error(1)
}

// MockTaskRepository モック報酬タスクリポジトリ
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByUserID(ctx context.Context, userID string) ([]*reward.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reward.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByUserIDAndTaskID(ctx context.Context, userID, taskID string) (*reward.Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.Task), args.Error(1)
}

func (m *MockTaskRepository) MarkClaimed(ctx context.Context, task *reward.Task) error {
	return m.Called(ctx, task).Error(0)
}

// MockGateway モック決済ゲートウェイ
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, req paymentapp.SessionRequest) (*paymentapp.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.Session), args.Error(1)
}

func (m *MockGateway) CheckStatus(ctx context.Context, orderID string) (*paymentapp.GatewayStatus, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.GatewayStatus), args.Error(1)
}

func (m *MockGateway) VerifySignature(n *paymentapp.Notification) bool {
	return m.Called(n).Bool(0)
}

// fakeCreditor InTx を実行して残高を加算するだけのコイン付与
type fakeCreditor struct {
	balance int64
	err     error
}

func (f *fakeCreditor) Credit(ctx context.Context, req service.CreditRequest) (*service.CreditResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	txn := transaction.MustNewTransaction("txn_test", req.UserID, req.Type, req.Coins, req.RupeeAmount,
		transaction.TransactionStatusCompleted, req.Description)
	if req.InTx != nil {
		if err := req.InTx(ctx, txn); err != nil {
			return nil, err
		}
	}
	f.balance += req.Coins
	return &service.CreditResult{Transaction: txn, BalanceAfter: f.balance}, nil
}
