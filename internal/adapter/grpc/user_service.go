package grpc

import (
	"context"
	"encoding/json"
	"math"

	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "user.v1.UserService"

// UserService is the server API for user.v1.UserService.
// Users travel as google.protobuf.Struct using the same field names as the REST API.
type UserService interface {
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetUser(context.Context, *wrapperspb.Int64Value) (*structpb.Value, error)
	AddUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// UserServiceServer implements the gRPC user service
type UserServiceServer struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserServiceServer creates a new gRPC user service server
func NewUserServiceServer(uc user.UserUsecase, log *zap.Logger) *UserServiceServer {
	return &UserServiceServer{uc: uc, log: log}
}

var _ UserService = (*UserServiceServer)(nil)

// userMessage mirrors the REST request body.
type userMessage struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ListUsers handles gRPC ListUsers request
func (s *UserServiceServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := s.uc.GetAllUsers(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "ListUsers", err)
	}

	values := make([]*structpb.Value, 0, len(users))
	for _, u := range users {
		st, err := toStruct(u)
		if err != nil {
			return nil, s.toStatus(ctx, "ListUsers", err)
		}
		values = append(values, structpb.NewStructValue(st))
	}

	return &structpb.ListValue{Values: values}, nil
}

// GetUser handles gRPC GetUser request. An unknown id yields a null value.
func (s *UserServiceServer) GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Value, error) {
	u, found, err := s.uc.GetUserByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, "GetUser", err)
	}
	if !found {
		return structpb.NewNullValue(), nil
	}

	st, err := toStruct(u)
	if err != nil {
		return nil, s.toStatus(ctx, "GetUser", err)
	}
	return structpb.NewStructValue(st), nil
}

// AddUser handles gRPC AddUser request
func (s *UserServiceServer) AddUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.save(ctx, "AddUser", req, s.uc.AddUser)
}

// UpdateUser handles gRPC UpdateUser request
func (s *UserServiceServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.save(ctx, "UpdateUser", req, s.uc.UpdateUser)
}

// DeleteUser handles gRPC DeleteUser request
func (s *UserServiceServer) DeleteUser(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.uc.DeleteUser(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, "DeleteUser", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *UserServiceServer) save(
	ctx context.Context,
	method string,
	req *structpb.Struct,
	op func(context.Context, domain.User) (domain.User, error),
) (*structpb.Struct, error) {
	u, err := fromStruct(req)
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}

	saved, err := op(ctx, u)
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}

	st, err := toStruct(saved)
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}
	return st, nil
}

// toStatus logs err and converts it into an error carrying a gRPC status.
func (s *UserServiceServer) toStatus(ctx context.Context, method string, err error) error {
	l := logger.WithContext(ctx, s.log).With(zap.String("method", method), zap.Error(err))
	if pkgerrors.IsValidation(err) {
		l.Warn("invalid gRPC request")
		return err
	}
	l.Error("gRPC request failed")
	return pkgerrors.Internal("An internal error occurred", err)
}

// maxExactInteger is the first magnitude at which a float64 stops representing every integer.
const maxExactInteger = 1 << 53

// checkInteger rejects a numeric field that is fractional or too large to be carried exactly
// by a google.protobuf.Value. Non-numeric kinds are left to the JSON decoder.
func checkInteger(st *structpb.Struct, field string) error {
	n, ok := st.GetFields()[field].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) >= maxExactInteger {
		return pkgerrors.NewValidationError(field, "must be an integer below 2^53 in magnitude")
	}
	return nil
}

func fromStruct(st *structpb.Struct) (domain.User, error) {
	for _, field := range []string{"id", "age"} {
		if err := checkInteger(st, field); err != nil {
			return domain.User{}, err
		}
	}

	raw, err := protojson.Marshal(st)
	if err != nil {
		return domain.User{}, pkgerrors.NewValidationError("body", err.Error())
	}

	var msg userMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.User{}, pkgerrors.NewValidationError("body", err.Error())
	}

	return domain.User{
		ID:        msg.ID,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		Age:       msg.Age,
		Email:     msg.Email,
		Password:  msg.Password,
	}, nil
}

func toStruct(u domain.User) (*structpb.Struct, error) {
	p := u.Public()
	return structpb.NewStruct(map[string]any{
		"id":        p.ID,
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"age":       p.Age,
		"email":     p.Email,
	})
}

// RegisterUserServiceServer registers srv on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserService) {
	s.RegisterService(&UserServiceDesc, srv)
}

// UserServiceDesc is the grpc.ServiceDesc for user.v1.UserService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserService)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListUsers", func() *emptypb.Empty { return new(emptypb.Empty) },
			func(srv UserService, ctx context.Context, in *emptypb.Empty) (any, error) { return srv.ListUsers(ctx, in) }),
		unaryMethod("GetUser", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
			func(srv UserService, ctx context.Context, in *wrapperspb.Int64Value) (any, error) { return srv.GetUser(ctx, in) }),
		unaryMethod("AddUser", func() *structpb.Struct { return new(structpb.Struct) },
			func(srv UserService, ctx context.Context, in *structpb.Struct) (any, error) { return srv.AddUser(ctx, in) }),
		unaryMethod("UpdateUser", func() *structpb.Struct { return new(structpb.Struct) },
			func(srv UserService, ctx context.Context, in *structpb.Struct) (any, error) { return srv.UpdateUser(ctx, in) }),
		unaryMethod("DeleteUser", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
			func(srv UserService, ctx context.Context, in *wrapperspb.Int64Value) (any, error) { return srv.DeleteUser(ctx, in) }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user/v1/user.proto",
}

// FullMethod returns the full RPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod[Req proto.Message](
	name string,
	newReq func() Req,
	call func(UserService, context.Context, Req) (any, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(UserService), ctx, req.(Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}
