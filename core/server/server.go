package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jfk9w-go/flu/me3x"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const LivenessText = "Content Bot is running! 🤖"

var ShutdownTimeout = 10 * time.Second

type Config struct {
	Host string `yaml:"host,omitempty" doc:"Interface to listen on. All interfaces by default."`
	Port int    `yaml:"port,omitempty" doc:"HTTP port for liveness checks and webhook delivery." default:"3000"`
}

func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = 3000
	}

	return fmt.Sprintf("%s:%d", c.Host, port)
}

// Server serves liveness checks and, when mounted, Telegram webhook deliveries.
type Server struct {
	Engine   *gin.Engine
	http     *http.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	work     syncf.WaitGroup
}

func New(registry me3x.Registry) *Server {
	if registry == nil {
		registry = me3x.DummyRegistry{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), Logger(), Metrics(registry))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, LivenessText)
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		Engine: engine,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start binds the address and serves in background.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}

	server := &http.Server{Handler: s.Engine}
	if err := s.Go(func(ctx context.Context) {
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		if err != nil {
			logrus.Errorf("http server failed: %s", err)
		} else {
			logrus.Debugf("http server stopped")
		}
	}); err != nil {
		_ = listener.Close()
		return errors.Wrap(err, "server is closed")
	}

	s.listener = listener
	s.http = server
	logrus.Infof("server running on %s", listener.Addr())
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Go runs fun in background. Close waits for it to complete.
func (s *Server) Go(fun func(ctx context.Context)) error {
	ctx, cancel := s.work.Spawn(s.ctx)
	if err := ctx.Err(); err != nil {
		cancel()
		return err
	}

	go func() {
		defer cancel()
		fun(ctx)
	}()

	return nil
}

func (s *Server) Close() error {
	var err error
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		err = s.http.Shutdown(ctx)
	}

	s.cancel()
	s.work.Wait()
	return err
}
