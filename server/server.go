// Package server exposes the tool registry over Connect RPC. Messages are
// protobuf well-known types, so both the proto and JSON codecs connect
// registers by default work.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	logcontext "github.com/va6996/querytools/context"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/log"
	"github.com/va6996/querytools/metrics"
	"github.com/va6996/querytools/tools"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName        = "querytools.v1.ToolService"
	InvokeProcedure    = "/" + ServiceName + "/Invoke"
	ListToolsProcedure = "/" + ServiceName + "/ListTools"
)

// ToolServer serves the registered tools
type ToolServer struct {
	registry *tools.Registry
}

func NewToolServer(registry *tools.Registry) *ToolServer {
	return &ToolServer{registry: registry}
}

func (s *ToolServer) Invoke(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	msg, err := ParseInvokeRequest(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	if msg.Tool == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("tool is required"))
	}

	ctx, _ = logcontext.EnsureInvocationID(ctx)
	log.Infof(ctx, "Received %s request", msg.Tool)

	if msg.Async {
		tool, ok := s.registry.Get(msg.Tool)
		if !ok {
			return nil, toConnectError(tools.ErrToolNotFound)
		}
		if _, err := tool.InvokeAsync(ctx, msg.Input); err != nil {
			return nil, toConnectError(err)
		}
		return nil, connect.NewError(connect.CodeInternal, errors.New("async result delivery is not supported"))
	}

	output, err := s.registry.ExecuteTool(ctx, msg.Tool, msg.Input)
	if err != nil {
		log.Errorf(ctx, "Error invoking %s: %v", msg.Tool, err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(NewInvokeResponse(output)), nil
}

func (s *ToolServer) ListTools(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	var infos []ToolInfo
	for _, t := range s.registry.List() {
		infos = append(infos, ToolInfo{Name: t.Name(), Description: t.Description()})
	}
	return connect.NewResponse(NewListToolsResponse(infos)), nil
}

// toConnectError maps tool errors onto connect codes
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, tools.ErrInvalidInput):
		code = connect.CodeInvalidArgument
	case errors.Is(err, tools.ErrToolNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, engine.ErrMissingDependency):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, tools.ErrUnsupportedOperation):
		code = connect.CodeUnimplemented
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}

// metricsInterceptor counts every RPC by procedure and result code
func metricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			metrics.RecordRequest(req.Spec().Procedure, code)
			return resp, err
		}
	}
}

// NewHandler routes the tool service and /metrics
func NewHandler(registry *tools.Registry) http.Handler {
	srv := NewToolServer(registry)
	opts := []connect.HandlerOption{
		connect.WithInterceptors(metricsInterceptor()),
	}

	mux := http.NewServeMux()
	mux.Handle(InvokeProcedure, connect.NewUnaryHandler(InvokeProcedure, srv.Invoke, opts...))
	mux.Handle(ListToolsProcedure, connect.NewUnaryHandler(ListToolsProcedure, srv.ListTools, opts...))
	mux.Handle("/metrics", metrics.Handler())

	return cors(mux)
}

// Simple CORS middleware
func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// New builds an HTTP server on port. h2c serves HTTP/2 without TLS.
func New(port string, registry *tools.Registry) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h2c.NewHandler(NewHandler(registry), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		log.Info(context.Background(), "Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof(ctx, "Starting server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
