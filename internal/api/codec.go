package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a JSON-tagged value into the wire message.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a wire message into a JSON-tagged value.
func FromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MethodPath is the full gRPC method name.
func MethodPath(service, method string) string {
	return "/" + service + "/" + method
}

type unaryFunc func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// handle adapts a typed handler to the wire format, mapping decode failures
// to InvalidArgument and encode failures to Internal.
func handle[Req, Resp any](fn func(ctx context.Context, req *Req) (*Resp, error)) unaryFunc {
	return func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		req := new(Req)
		if err := FromStruct(in, req); err != nil {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "decode request: %v", err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		out, err := ToStruct(resp)
		if err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "encode response: %v", err)
		}
		return out, nil
	}
}

// serviceDesc builds a grpc.ServiceDesc whose methods exchange structpb.Struct messages.
func serviceDesc(name string, methods map[string]unaryFunc, streams ...grpc.StreamDesc) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*any)(nil),
		Streams:     streams,
		Metadata:    "giftem/v1",
	}
	for method, fn := range methods {
		fullMethod := MethodPath(name, method)
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: method,
			Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return fn(ctx, in)
				}
				info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
				return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
					return fn(ctx, req.(*structpb.Struct))
				})
			},
		})
	}
	return desc
}
