// Command prismcms is a CLI client for the PrismCMS console service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/and161185/prismcms/internal/repository/file"
	grpcserver "github.com/and161185/prismcms/internal/server/grpc"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- token store ----

type tokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email,omitempty"`
}

func tokenPath() string { return file.DefaultPath("token.json") }

func saveToken(tf tokenFile) error {
	p := tokenPath()
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func loadToken(now time.Time) (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errors.New("not logged in (run login)")
		}
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.Token == "" || now.After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.Token, nil
}

func removeToken() error {
	if err := os.Remove(tokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// tokenExpiry reads exp from a token without verifying it; the server does that.
func tokenExpiry(tok string, fallback time.Time) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil || claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}

// ---- grpc dial ----

type caller interface {
	Call(ctx context.Context, method string, req map[string]any) (map[string]any, error)
}

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev only
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

type app struct {
	addr       string
	caPath     string
	skipVerify bool
	plaintext  bool
	timeout    time.Duration

	out     io.Writer
	now     func() time.Time
	connect func(token string) (caller, func(), error)
}

func newApp() *app {
	a := &app{out: os.Stdout, now: time.Now}
	a.connect = a.dial
	return a
}

func (a *app) dial(token string) (caller, func(), error) {
	var creds credentials.TransportCredentials
	if a.plaintext {
		creds = insecure.NewCredentials()
	} else {
		c, err := loadTLS(a.caPath, a.skipVerify)
		if err != nil {
			return nil, nil, err
		}
		creds = c
	}
	cc, err := grpc.NewClient(a.addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, nil, err
	}
	return grpcserver.NewClient(cc, token), func() { _ = cc.Close() }, nil
}

// call runs one RPC with the cached token unless public is set.
func (a *app) call(ctx context.Context, public bool, method string, req map[string]any) (map[string]any, error) {
	token := ""
	if !public {
		t, err := loadToken(a.now())
		if err != nil {
			return nil, err
		}
		token = t
	}
	cli, closeFn, err := a.connect(token)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	out, err := cli.Call(ctx, method, req)
	if err != nil {
		if st, ok := status.FromError(err); ok {
			return nil, fmt.Errorf("%s: %s", st.Code(), st.Message())
		}
		return nil, err
	}
	return out, nil
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ---- main ----

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "prismcms",
		Short:         "PrismCMS console client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.addr, "addr", "localhost:8443", "server addr")
	pf.StringVar(&a.caPath, "cacert", "", "CA cert (PEM)")
	pf.BoolVar(&a.skipVerify, "insecure", false, "skip cert verify (dev)")
	pf.BoolVar(&a.plaintext, "plaintext", false, "connect without TLS")
	pf.DurationVar(&a.timeout, "timeout", 30*time.Second, "per-call timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(a.out, "prismcms %s (%s)\n", version, buildDate)
			},
		},
		loginCmd(a), registerCmd(a), logoutCmd(a),
		listCmd(a), getCmd(a), createCmd(a),
		transitionCmd(a, "publish", "PublishContent", "Publish an item"),
		transitionCmd(a, "archive", "ArchiveContent", "Archive an item"),
		rmCmd(a), statsCmd(a), notificationsCmd(a),
		usersCmd(a), profileCmd(a), passwdCmd(a), mediaCmd(a), settingsCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
