package irisfast

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket/wsjson"
)

// Egress abstracts reply sending over HTTP or the websocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// NewEgress builds an Egress for the given mode. In auto mode the websocket
// is preferred while connected, with a single HTTP fallback per message.
func NewEgress(mode string, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(mode) {
	case transportWS:
		return &wsEgress{ws: ws}
	case transportAuto:
		return &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendMessage(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

// wsEgress writes ReplyRequest frames on the inbound connection.
type wsEgress struct {
	ws *WebSocket
}

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	return w.writeJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return w.writeJSON(ctx, &ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

func (w *wsEgress) writeJSON(ctx context.Context, v any) error {
	if w == nil || w.ws == nil || w.ws.conn == nil || w.ws.State() != WSStateConnected {
		return errors.New("ws not connected")
	}
	// wsjson.Write is not safe across goroutines; call sites send one
	// message at a time.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, w.ws.conn, v)
}

// autoEgress prefers the websocket, falling back to HTTP once per message.
type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.wsReady() {
		if err := a.ws.SendText(ctx, room, message); err == nil {
			return nil
		}
		a.logger.Warn("egress fallback to http", zap.String("room", room))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.wsReady() {
		if err := a.ws.SendImage(ctx, room, imageBase64); err == nil {
			return nil
		}
		a.logger.Warn("egress fallback to http", zap.String("room", room))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}

func (a *autoEgress) wsReady() bool {
	return a.ws != nil && a.ws.ws != nil && a.ws.ws.conn != nil && a.ws.ws.State() == WSStateConnected
}
