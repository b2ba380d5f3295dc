package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the console service over an existing connection.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

// NewClient wraps cc. token may be empty for public methods.
func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

// SetToken replaces the bearer token sent with every call.
func (c *Client) SetToken(token string) { c.token = token }

// Call invokes method with req and decodes the reply as a map.
// Methods returning google.protobuf.Empty yield an empty map.
func (c *Client) Call(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
