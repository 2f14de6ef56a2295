package handler

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	currencyapp "coin-wallet/internal/application/currency"
	paymentapp "coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/purchase"
	"coin-wallet/internal/domain/wallet"
)

func TestAdminHandler(t *testing.T) {
	wallets := new(MockWalletRepository)
	packages := new(MockPackageRepository)
	payments := new(MockPaymentRepository)

	h := NewAdminHandler(
		currencyapp.NewCurrencyApplicationService(wallets, packages, nil, nil),
		paymentapp.NewPaymentApplicationService(payments, packages, &fakeCreditor{}, nil, nil, paymentapp.Settings{}, nil, nil),
	)

	t.Run("正常系: 指定ユーザーの残高", func(t *testing.T) {
		wallets.On("FindByUserID", mock.Anything, "user456").Return(wallet.MustNewWallet("user456", 40, 1), nil).Once()

		resp, err := h.GetUserBalance(context.Background(), wrapperspb.String("user456"))
		require.NoError(t, err)
		assert.Equal(t, float64(40), resp.GetFields()["balance"].GetNumberValue())
		assert.Equal(t, "2.00", resp.GetFields()["rupee_value"].GetStringValue())
	})

	t.Run("異常系: ユーザーIDなし", func(t *testing.T) {
		_, err := h.GetUserBalance(context.Background(), wrapperspb.String(""))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("正常系: ゲートウェイなしで期限切れにする", func(t *testing.T) {
		stale := purchase.MustNewPayment("ord_old", "user123", nil, 2000, decimal.NewFromInt(100))
		payments.On("FindPendingBefore", mock.Anything, mock.AnythingOfType("time.Time"), 100).
			Return([]*purchase.Payment{stale}, nil).Once()
		payments.On("Update", mock.Anything, stale).Return(nil).Once()

		resp, err := h.ExpireStalePayments(context.Background(), &emptypb.Empty{})
		require.NoError(t, err)
		assert.Equal(t, float64(1), resp.GetFields()["expired"].GetNumberValue())
		assert.Equal(t, purchase.PaymentStatusExpired, stale.Status())
	})

	t.Run("正常系: ゲートウェイなしの照合は状態を変えない", func(t *testing.T) {
		p := purchase.MustNewPayment("ord_1", "user123", nil, 2000, decimal.NewFromInt(100))
		payments.On("FindByOrderID", mock.Anything, "ord_1").Return(p, nil).Once()

		resp, err := h.ReconcilePayment(context.Background(), wrapperspb.String("ord_1"))
		require.NoError(t, err)
		assert.Equal(t, "pending", resp.GetFields()["status"].GetStringValue())
	})

	t.Run("異常系: 注文が存在しない", func(t *testing.T) {
		payments.On("FindByOrderID", mock.Anything, "ord_missing").Return(nil, purchase.ErrPaymentNotFound).Once()

		_, err := h.ReconcilePayment(context.Background(), wrapperspb.String("ord_missing"))
		assert.Equal(t, codes.NotFound, status.Code(err))
		assert.Equal(t, "payment_not_found", ReasonOf(err))
	})
}
