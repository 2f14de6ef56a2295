package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// WalletServiceName ユーザー向けサービス名（JWT認証）
	WalletServiceName = "coinwallet.v1.WalletService"
	// AdminServiceName 運用サービス名（APIキー認証）
	AdminServiceName = "coinwallet.v1.AdminService"
)

// WalletServiceServer ユーザー向けウォレットサービス
type WalletServiceServer interface {
	GetBalance(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListPackages(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetTransactionHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreatePurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPurchase(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListTasks(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ClaimTask(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// AdminServiceServer 運用サービス
type AdminServiceServer interface {
	GetUserBalance(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ReconcilePayment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ExpireStalePayments(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// WalletServiceDesc WalletService のサービス定義
var WalletServiceDesc = grpc.ServiceDesc{
	ServiceName: WalletServiceName,
	HandlerType: (*WalletServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBalance", Handler: unary(WalletServiceName, "GetBalance", WalletServiceServer.GetBalance)},
		{MethodName: "ListPackages", Handler: unary(WalletServiceName, "ListPackages", WalletServiceServer.ListPackages)},
		{MethodName: "GetTransactionHistory", Handler: unary(WalletServiceName, "GetTransactionHistory", WalletServiceServer.GetTransactionHistory)},
		{MethodName: "CreatePurchase", Handler: unary(WalletServiceName, "CreatePurchase", WalletServiceServer.CreatePurchase)},
		{MethodName: "GetPurchase", Handler: unary(WalletServiceName, "GetPurchase", WalletServiceServer.GetPurchase)},
		{MethodName: "ListTasks", Handler: unary(WalletServiceName, "ListTasks", WalletServiceServer.ListTasks)},
		{MethodName: "ClaimTask", Handler: unary(WalletServiceName, "ClaimTask", WalletServiceServer.ClaimTask)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coinwallet/v1/wallet.proto",
}

// AdminServiceDesc AdminService のサービス定義
var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUserBalance", Handler: unary(AdminServiceName, "GetUserBalance", AdminServiceServer.GetUserBalance)},
		{MethodName: "ReconcilePayment", Handler: unary(AdminServiceName, "ReconcilePayment", AdminServiceServer.ReconcilePayment)},
		{MethodName: "ExpireStalePayments", Handler: unary(AdminServiceName, "ExpireStalePayments", AdminServiceServer.ExpireStalePayments)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coinwallet/v1/admin.proto",
}

// FullMethodName "/<service>/<method>" 形式のメソッド名
func FullMethodName(service, method string) string {
	return "/" + service + "/" + method
}

// unary リクエストのデコードとインターセプター呼び出しを行うメソッドハンドラーを作成
func unary[S any, Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](service, method string, call func(S, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	fullMethod := FullMethodName(service, method)
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(S), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
