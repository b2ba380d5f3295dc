package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "prismcms.v1.Console"

// ConsoleServer is the console API. Requests are google.protobuf.Struct payloads.
type ConsoleServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RequestPasswordReset(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	ListContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PublishContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ArchiveContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleUserStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetUserRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	ListMedia(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UploadMedia(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMedia(context.Context, *structpb.Struct) (*structpb.Struct, error)

	GetSettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateSettings(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListNotifications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DismissNotification(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

type method struct {
	name   string
	public bool
	call   func(ConsoleServer, context.Context, *structpb.Struct) (proto.Message, error)
}

// wrap erases the response type of a ConsoleServer method expression.
func wrap[R proto.Message](f func(ConsoleServer, context.Context, *structpb.Struct) (R, error)) func(ConsoleServer, context.Context, *structpb.Struct) (proto.Message, error) {
	return func(srv ConsoleServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
		r, err := f(srv, ctx, in)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

var methods = []method{
	{"Login", true, wrap(ConsoleServer.Login)},
	{"Register", true, wrap(ConsoleServer.Register)},
	{"Logout", false, wrap(ConsoleServer.Logout)},
	{"RequestPasswordReset", true, wrap(ConsoleServer.RequestPasswordReset)},
	{"ListContent", false, wrap(ConsoleServer.ListContent)},
	{"GetContent", false, wrap(ConsoleServer.GetContent)},
	{"CreateContent", false, wrap(ConsoleServer.CreateContent)},
	{"UpdateContent", false, wrap(ConsoleServer.UpdateContent)},
	{"DeleteContent", false, wrap(ConsoleServer.DeleteContent)},
	{"PublishContent", false, wrap(ConsoleServer.PublishContent)},
	{"ArchiveContent", false, wrap(ConsoleServer.ArchiveContent)},
	{"QueryContent", false, wrap(ConsoleServer.QueryContent)},
	{"Stats", false, wrap(ConsoleServer.Stats)},
	{"ListUsers", false, wrap(ConsoleServer.ListUsers)},
	{"AddUser", false, wrap(ConsoleServer.AddUser)},
	{"DeleteUser", false, wrap(ConsoleServer.DeleteUser)},
	{"ToggleUserStatus", false, wrap(ConsoleServer.ToggleUserStatus)},
	{"SetUserRole", false, wrap(ConsoleServer.SetUserRole)},
	{"UpdateProfile", false, wrap(ConsoleServer.UpdateProfile)},
	{"ChangePassword", false, wrap(ConsoleServer.ChangePassword)},
	{"ListMedia", false, wrap(ConsoleServer.ListMedia)},
	{"UploadMedia", false, wrap(ConsoleServer.UploadMedia)},
	{"DeleteMedia", false, wrap(ConsoleServer.DeleteMedia)},
	{"GetSettings", false, wrap(ConsoleServer.GetSettings)},
	{"UpdateSettings", false, wrap(ConsoleServer.UpdateSettings)},
	{"ListNotifications", false, wrap(ConsoleServer.ListNotifications)},
	{"DismissNotification", false, wrap(ConsoleServer.DismissNotification)},
}

// FullMethod returns "/prismcms.v1.Console/<name>".
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// PublicMethods lists the full method names callable without a bearer token.
func PublicMethods() map[string]bool {
	out := map[string]bool{}
	for _, m := range methods {
		if m.public {
			out[FullMethod(m.name)] = true
		}
	}
	return out
}

// ServiceDesc describes the console service for grpc.Server.RegisterService.
var ServiceDesc = buildDesc()

func buildDesc() grpc.ServiceDesc {
	sd := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*ConsoleServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "prismcms/v1/console.proto",
	}
	for _, m := range methods {
		sd.Methods = append(sd.Methods, grpc.MethodDesc{MethodName: m.name, Handler: handlerFor(m)})
	}
	return sd
}

func handlerFor(m method) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	full := FullMethod(m.name)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return m.call(srv.(ConsoleServer), ctx, req.(*structpb.Struct))
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		return interceptor(ctx, in, info, handler)
	}
}

// Register attaches srv to gs.
func Register(gs grpc.ServiceRegistrar, srv ConsoleServer) {
	gs.RegisterService(&ServiceDesc, srv)
}
