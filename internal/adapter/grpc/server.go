package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/caixinha-backend/internal/adapter/api"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "caixinha.v1.CaixinhaService"

// Messages are google.protobuf.Struct documents carrying the api package's
// JSON shapes, so clients need no generated stubs.

// caixinhaServer is the handler type grpc.Server.RegisterService checks implementations against
type caixinhaServer interface {
	handle(ctx context.Context, method string, err error) error
}

// Server implements the CaixinhaService gRPC server
type Server struct {
	API *api.API
	Log logrus.FieldLogger
}

// NewServer creates a new gRPC server instance
func NewServer(a *api.API, log logrus.FieldLogger) *Server {
	return &Server{API: a, Log: log}
}

// Register attaches the service to a grpc.Server
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the wire path of a method, e.g. /caixinha.v1.CaixinhaService/Login
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ServiceDesc describes every RPC of the service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*caixinhaServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", (*api.API).Register),
		unary("Login", (*api.API).Login),
		unary("Me", (*api.API).Me),
		unary("CreateApplication", (*api.API).CreateApplication),
		unary("GetApplication", (*api.API).GetApplication),
		unary("ListApplications", (*api.API).ListApplications),
		unary("UpdateApplication", (*api.API).UpdateApplication),
		unary("DeleteApplication", (*api.API).DeleteApplication),
		unary("CreateHistoryEntry", (*api.API).CreateHistoryEntry),
		unary("ListHistory", (*api.API).ListHistory),
		unary("UpdateHistoryEntry", (*api.API).UpdateHistoryEntry),
		unary("DeleteHistoryEntry", (*api.API).DeleteHistoryEntry),
		unary("GetApplicationSummary", (*api.API).GetApplicationSummary),
		unary("GetPortfolioSummary", (*api.API).GetPortfolioSummary),
		unary("GetPerformance", (*api.API).GetPerformance),
		unary("GetTimeSeries", (*api.API).GetTimeSeries),
		unary("ExportData", (*api.API).ExportData),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "caixinha/v1/caixinha.proto",
}

// unary adapts an api method to a grpc.MethodDesc. The request Struct is
// decoded into Req, the method runs, and Resp is encoded back into a Struct.
func unary[Req, Resp any](name string, call func(*api.API, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			server := srv.(*Server)
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				var r Req
				if err := FromStruct(req.(*structpb.Struct), &r); err != nil {
					return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
				}

				resp, err := call(server.API, ctx, &r)
				if err != nil {
					return nil, server.handle(ctx, name, err)
				}

				out, err := ToStruct(resp)
				if err != nil {
					return nil, server.handle(ctx, name, err)
				}
				return out, nil
			}

			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// handle converts an api error to a gRPC status. Internal failures are logged
// with their cause and returned to the client without it.
func (s *Server) handle(ctx context.Context, method string, err error) error {
	code := api.Classify(err)
	if code == api.CodeInternal && s.Log != nil {
		s.Log.WithError(err).WithField("method", method).Error("request failed")
	}
	return status.Error(statusCode(code), api.PublicMessage(err))
}

func statusCode(code api.Code) codes.Code {
	switch code {
	case api.CodeInvalidArgument:
		return codes.InvalidArgument
	case api.CodeNotFound:
		return codes.NotFound
	case api.CodeConflict:
		return codes.AlreadyExists
	case api.CodeUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// ToStruct encodes v through its JSON form into a Struct
func ToStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return out, nil
}

// FromStruct decodes a Struct into v through its JSON form
func FromStruct(s *structpb.Struct, v interface{}) error {
	if s == nil {
		s = new(structpb.Struct)
	}

	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
