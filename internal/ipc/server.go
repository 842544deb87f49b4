package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/core"
)

const DefaultSocketPath = "/tmp/loot-tracker.sock"

type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Session *tracker.Status `json:"session,omitempty"`
	Loot    []ledger.Entry  `json:"loot,omitempty"`
	Total   string          `json:"total,omitempty"`
}

// Controller is the session control surface the socket exposes.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Reset()
	SetMode(mode loot.Mode)
	Status() tracker.Status
	Snapshot() ledger.Snapshot
}

type Server struct {
	socketPath string
	control    Controller
	log        core.Logger
}

func NewServer(socketPath string, control Controller, log core.Logger) *Server {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Server{socketPath: socketPath, control: control, log: log}
}

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	// Remove the socket file if it already exists
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to start socket server: %w", err)
	}
	defer os.Remove(s.socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.log.Info("Socket server started", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("Failed to accept connection", err)
			continue
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.log.Error("Failed to decode request", err)
		return
	}

	s.log.Info("Received request", "command", req.Command, "args", req.Args)
	resp := s.Handle(ctx, req)

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Error("Failed to encode response", err)
	} else {
		s.log.Debug("Response sent successfully", "status", resp.Status)
	}
}

// Handle executes one request against the controller.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	switch strings.ToLower(req.Command) {
	case "start":
		if err := s.control.Start(ctx); err != nil {
			return failure(err)
		}
		return s.withStatus("Session started")
	case "stop":
		if err := s.control.Stop(); err != nil {
			return failure(err)
		}
		return s.withStatus("Session stopped")
	case "reset":
		s.control.Reset()
		return Response{Status: "success", Message: "Ledger reset"}
	case "mode":
		if len(req.Args) != 1 {
			return Response{Status: "error", Message: "usage: mode chat|drop"}
		}
		mode, err := loot.ParseMode(req.Args[0])
		if err != nil {
			return failure(err)
		}
		s.control.SetMode(mode)
		return s.withStatus("Mode set to " + mode.String())
	case "status":
		return s.withStatus("ok")
	case "snapshot":
		snap := s.control.Snapshot()
		st := s.control.Status()
		return Response{
			Status:  "success",
			Message: fmt.Sprintf("%d items", len(snap)),
			Session: &st,
			Loot:    snap.Sorted(),
			Total:   snap.Total().String(),
		}
	default:
		s.log.Warn("Unknown command received", "command", req.Command)
		return Response{Status: "error", Message: "Unknown command"}
	}
}

func (s *Server) withStatus(msg string) Response {
	st := s.control.Status()
	return Response{Status: "success", Message: msg, Session: &st}
}

func failure(err error) Response {
	return Response{Status: "error", Message: err.Error()}
}
