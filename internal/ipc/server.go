package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// MaxRequestBytes bounds one control request line. The protocol carries a
// single verb, so anything larger is a misbehaving client.
const MaxRequestBytes = 4096

// Handler processes one control request from a CLI client.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts control clients on the session socket until the context is
// cancelled or the listener closes. Each connection carries exactly one
// request and one response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	req, err := readRequest(conn)
	if err != nil {
		writeResponse(conn, errorResponse(err))
		return
	}
	writeResponse(conn, handler.Handle(ctx, req))
}

// readRequest reads one newline-delimited JSON request off the connection.
// The read is capped at MaxRequestBytes so a client cannot grow the buffer
// without bound.
func readRequest(conn net.Conn) (Request, error) {
	reader := bufio.NewReader(io.LimitReader(conn, MaxRequestBytes))
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func writeResponse(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}

func errorResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
