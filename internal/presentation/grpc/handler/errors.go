package handler

import (
	"errors"

	authapp "coin-wallet/internal/application/auth"
	paymentapp "coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/purchase"
	"coin-wallet/internal/domain/reward"
	"coin-wallet/internal/domain/transaction"
	"coin-wallet/internal/domain/wallet"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain ErrorInfo に設定するドメイン名
const ErrorDomain = "coin-wallet"

type statusMapping struct {
	target error
	code   codes.Code
	reason string
}

// REST の error コードと同じ reason を ErrorInfo で返す
var statusMappings = []statusMapping{
	{reward.ErrAlreadyClaimed, codes.AlreadyExists, "already_claimed"},
	{reward.ErrTaskLocked, codes.FailedPrecondition, "task_locked"},
	{reward.ErrTaskNotFound, codes.NotFound, "task_not_found"},
	{purchase.ErrPaymentNotFound, codes.NotFound, "payment_not_found"},
	{purchase.ErrPaymentAlreadyFinalized, codes.FailedPrecondition, "payment_already_finalized"},
	{coin.ErrPackageNotFound, codes.NotFound, "package_not_found"},
	{coin.ErrAmountBelowMinimum, codes.InvalidArgument, "amount_below_minimum"},
	{coin.ErrAmountAboveMaximum, codes.InvalidArgument, "amount_above_maximum"},
	{paymentapp.ErrFractionalAmount, codes.InvalidArgument, "invalid_amount"},
	{paymentapp.ErrInvalidPurchase, codes.InvalidArgument, "invalid_purchase"},
	{paymentapp.ErrIncompleteProfile, codes.InvalidArgument, "incomplete_profile"},
	{paymentapp.ErrCheckoutRejected, codes.FailedPrecondition, "checkout_rejected"},
	{paymentapp.ErrGatewayUnavailable, codes.Unavailable, "gateway_unavailable"},
	{transaction.ErrInvalidDateRange, codes.InvalidArgument, "invalid_date_range"},
	{transaction.ErrInvalidTransaction, codes.InvalidArgument, "invalid_filter"},
	{wallet.ErrBalanceOutOfRange, codes.FailedPrecondition, "balance_out_of_range"},
	{wallet.ErrVersionConflict, codes.Aborted, "version_conflict"},
	{authapp.ErrInvalidUserID, codes.InvalidArgument, "invalid_user_id"},
}

// toStatus エラーをgRPCステータスに変換
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	for _, m := range statusMappings {
		if errors.Is(err, m.target) {
			return withReason(m.code, m.target.Error(), m.reason)
		}
	}

	// gRPCステータスエラーの場合はそのまま返す
	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, "internal server error")
}

func withReason(code codes.Code, message, reason string) error {
	st := status.New(code, message)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: ErrorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf ステータスの ErrorInfo から reason を取り出す（なければ空文字）
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

func invalidArgument(message string) error {
	return withReason(codes.InvalidArgument, message, "invalid_request")
}
