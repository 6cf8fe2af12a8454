package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPService 托管 API 的 http.Server
type HTTPService struct {
	server *http.Server
	listen func(network, addr string) (net.Listener, error)
}

// NewHTTPService 创建 HTTP 服务
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// 同步发信可能占用一个 SMTP 超时周期
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		listen: net.Listen,
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Start 监听端口并阻塞，端口占用等错误直接返回
func (s *HTTPService) Start(_ context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	ln, err := s.listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
