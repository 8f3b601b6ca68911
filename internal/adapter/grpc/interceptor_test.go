package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/caixinha-backend/internal/auth"
)

type stubVerifier struct {
	valid   string
	ownerID uuid.UUID
}

func (v stubVerifier) Verify(token string) (uuid.UUID, error) {
	if token != v.valid {
		return uuid.Nil, auth.ErrInvalidToken
	}
	return v.ownerID, nil
}

type stubObserver struct {
	method string
	code   string
	calls  int
}

func (o *stubObserver) ObserveRPC(method, code string, _ time.Duration) {
	o.method = method
	o.code = code
	o.calls++
}

func TestAuthInterceptor(t *testing.T) {
	ownerID := uuid.New()
	validToken := "test-token-123"
	interceptor := AuthInterceptor(stubVerifier{valid: validToken, ownerID: ownerID})

	tests := []struct {
		name           string
		ctx            context.Context
		method         string
		handlerCalled  bool
		wantOwner      bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			method:        FullMethod("ListApplications"),
			handlerCalled: true,
			wantOwner:     true,
			expectedCode:  codes.OK,
		},
		{
			name: "Valid Token Without Scheme",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			method:        FullMethod("ListApplications"),
			handlerCalled: true,
			wantOwner:     true,
			expectedCode:  codes.OK,
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer wrong-token"),
			),
			method:         FullMethod("ListApplications"),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			method:         FullMethod("ListApplications"),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			method:         FullMethod("ListApplications"),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
		{
			name:          "Login Is Public",
			ctx:           context.Background(),
			method:        FullMethod("Login"),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name:          "Register Is Public",
			ctx:           context.Background(),
			method:        FullMethod("Register"),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			var gotOwner uuid.UUID
			var hasOwner bool
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				gotOwner, hasOwner = auth.OwnerFrom(ctx)
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: tt.method,
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
				assert.Equal(t, tt.wantOwner, hasOwner)
				if tt.wantOwner {
					assert.Equal(t, ownerID, gotOwner)
				}
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestLoggingInterceptor(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	interceptor := LoggingInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("CreateApplication")}

	tests := []struct {
		name      string
		err       error
		wantLevel logrus.Level
		wantCode  string
	}{
		{"ok", nil, logrus.InfoLevel, "OK"},
		{"client error", status.Error(codes.NotFound, "application not found"), logrus.WarnLevel, "NotFound"},
		{"server error", status.Error(codes.Internal, "internal error"), logrus.ErrorLevel, "Internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, tt.err
			})

			entry := hook.LastEntry()
			if assert.NotNil(t, entry) {
				assert.Equal(t, tt.wantLevel, entry.Level)
				assert.Equal(t, "CreateApplication", entry.Data["method"])
				assert.Equal(t, tt.wantCode, entry.Data["code"])
			}
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	observer := &stubObserver{}
	interceptor := MetricsInterceptor(observer)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("DeleteHistoryEntry")}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "history entry not found")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, observer.calls)
	assert.Equal(t, "DeleteHistoryEntry", observer.method)
	assert.Equal(t, "NotFound", observer.code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "abc", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}
