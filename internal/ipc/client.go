package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// SendCommand sends one request to a running tracker and waits for the reply.
func SendCommand(socketPath string, command string, args ...string) (Response, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return Response{}, fmt.Errorf("failed to connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	req := Request{Command: command, Args: args}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}
