// Command watch follows one area from the terminal. It prints the current
// session, then subscribes to the server's WebSocket push and reprints the
// court and queue on every update. Useful as a scoreboard next to a court.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/courtqueue/game/engine"
	ws "github.com/wricardo/courtqueue/transport/websocket"
)

// Watcher renders pushes for a single area
type Watcher struct {
	baseURL string
	area    string
	out     io.Writer
	client  *http.Client
}

// NewWatcher creates a watcher for area on the server at baseURL
func NewWatcher(baseURL, area string, out io.Writer) *Watcher {
	return &Watcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		area:    area,
		out:     out,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchSession reads the area's current session over REST
func (w *Watcher) FetchSession(ctx context.Context) (*engine.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/api/queue/"+url.PathEscape(w.area), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get session failed: %s - %s", resp.Status, string(body))
	}

	var s engine.Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &s, nil
}

// wsURL derives the WebSocket endpoint from the HTTP base URL
func (w *Watcher) wsURL() (string, error) {
	u, err := url.Parse(w.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("area", w.area)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the WebSocket endpoint
func (w *Watcher) Connect(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := w.wsURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, nil
}

// Listen renders every message from conn until it closes or ctx is done.
// It returns the number of session updates rendered.
func (w *Watcher) Listen(ctx context.Context, conn *websocket.Conn) (int, error) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	updates := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return updates, nil
			}
			return updates, fmt.Errorf("websocket read: %w", err)
		}

		var message ws.Message
		if err := json.Unmarshal(data, &message); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}

		switch message.Event {
		case ws.EventSessionUpdate:
			if message.Session == nil {
				continue
			}
			updates++
			render(w.out, w.area, message.Session)
		case ws.EventReset:
			fmt.Fprintf(w.out, "\n*** %s was reset ***\n", w.area)
			if s, err := w.FetchSession(ctx); err == nil {
				render(w.out, w.area, s)
			}
		}
	}
}

// render prints the court and queue
func render(out io.Writer, area string, s *engine.Session) {
	mode := "not set"
	if s.Mode != engine.ModeUnset {
		mode = string(s.Mode)
	}

	fmt.Fprintf(out, "\n=== %s (%s) %s ===\n", area, mode, time.Now().Format("15:04:05"))
	switch len(s.InPlay) {
	case 0:
		fmt.Fprintln(out, "Court: empty")
	case 1:
		fmt.Fprintf(out, "Court: %s (waiting for an opponent)\n", s.InPlay[0].Name)
	default:
		fmt.Fprintf(out, "Court: %s %d - %d %s\n", s.InPlay[0].Name, s.Score.Team1, s.Score.Team2, s.InPlay[1].Name)
	}

	if len(s.Queue) == 0 {
		fmt.Fprintln(out, "Queue: empty")
		return
	}
	fmt.Fprintln(out, "Queue:")
	for i, t := range s.Queue {
		fmt.Fprintf(out, "  %d. %s\n", i+1, t.Name)
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Court queue server URL")
	area := flag.String("area", "", "Area to watch (required)")
	retry := flag.Duration("retry", 5*time.Second, "Delay before reconnecting after a dropped connection (0 = exit)")
	flag.Parse()

	if *area == "" {
		fmt.Fprintln(os.Stderr, "Usage: watch -area <area> [-url http://localhost:8080]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := NewWatcher(*serverURL, *area, os.Stdout)
	for {
		if err := watchOnce(ctx, w); err != nil {
			log.Printf("Watch error: %v", err)
		}
		if ctx.Err() != nil || *retry <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(*retry):
			log.Printf("Reconnecting to %s", *serverURL)
		}
	}
}

// watchOnce prints the current state and follows pushes until the connection drops
func watchOnce(ctx context.Context, w *Watcher) error {
	s, err := w.FetchSession(ctx)
	if err != nil {
		return err
	}
	render(w.out, w.area, s)

	conn, err := w.Connect(ctx)
	if err != nil {
		return err
	}
	log.Printf("WebSocket connected for area %s", w.area)

	_, err = w.Listen(ctx, conn)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
