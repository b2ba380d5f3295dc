package grpcserver

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/prismcms/internal/metrics"
	"github.com/and161185/prismcms/internal/model"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()

	ic := LoggingUnary(zaptest.NewLogger(t))
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})
	info := &grpc.UnaryServerInfo{FullMethod: "/prismcms.v1.Console/Stats"}

	resp, err := ic(ctx, "req", info, func(context.Context, any) (any, error) { return "ok", nil })
	if err != nil || resp.(string) != "ok" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}

	wantErr := errors.New("boom")
	_, err = ic(ctx, "req", info, func(context.Context, any) (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("want original error, got: %v", err)
	}
}

func TestRecoverUnary_CatchesPanic(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/prismcms.v1.Console/Panic"}

	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { panic("oh no") })
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Internal {
		t.Fatalf("want codes.Internal, got: %v", err)
	}

	resp, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return 42, nil })
	if err != nil || resp.(int) != 42 {
		t.Fatalf("pass-through broken: %v, %v", resp, err)
	}
}

func TestMetricsUnary_CountsByCode(t *testing.T) {
	t.Parallel()

	const method = "/prismcms.v1.Console/MetricsCount"
	ic := MetricsUnary()
	info := &grpc.UnaryServerInfo{FullMethod: method}

	before := testutil.ToFloat64(metrics.RPCRequestsTotal.WithLabelValues(method, codes.NotFound.String()))
	_, _ = ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "x")
	})
	after := testutil.ToFloat64(metrics.RPCRequestsTotal.WithLabelValues(method, codes.NotFound.String()))
	if after != before+1 {
		t.Fatalf("counter want %v, got %v", before+1, after)
	}
}

type fakeVerifier struct {
	token string
	user  model.SessionUser
	live  bool
}

func (f *fakeVerifier) Verify(tok string) (string, error) {
	if tok != f.token {
		return "", errors.New("bad token")
	}
	return f.user.ID, nil
}

func (f *fakeVerifier) Current() (model.SessionUser, bool) { return f.user, f.live }

func ctxAuth(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer "+token))
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	v := &fakeVerifier{token: "good", user: model.SessionUser{ID: "1", Name: "Admin User"}, live: true}
	ic := AuthUnary(v, map[string]bool{"/svc/Open": true})

	var seen model.SessionUser
	h := func(ctx context.Context, _ any) (any, error) {
		seen, _ = UserFromCtx(ctx)
		return "ok", nil
	}

	if _, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Open"}, h); err != nil {
		t.Fatalf("public method: %v", err)
	}

	closed := &grpc.UnaryServerInfo{FullMethod: "/svc/Closed"}
	if _, err := ic(context.Background(), nil, closed, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated without metadata, got %v", err)
	}
	if _, err := ic(ctxAuth("bad"), nil, closed, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated on bad token, got %v", err)
	}
	if _, err := ic(ctxAuth("good"), nil, closed, h); err != nil {
		t.Fatalf("good token: %v", err)
	}
	if seen.ID != "1" {
		t.Fatalf("user not propagated: %+v", seen)
	}

	v.live = false
	if _, err := ic(ctxAuth("good"), nil, closed, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated after session end, got %v", err)
	}
}

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}
