// consolectl: operator CLI for a running console.
//
//	consolectl start [--client ID]   provision a session with the stored settings
//	consolectl flat  [--client ID]   print the flat settings view
//	consolectl watch                 stream provisioning events
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	"github.com/teslashibe/rtvi-console/internal/config"
	"github.com/teslashibe/rtvi-console/internal/httpc"
	"github.com/teslashibe/rtvi-console/pkg/callconfig"
	"github.com/teslashibe/rtvi-console/pkg/hub"
	"github.com/teslashibe/rtvi-console/pkg/session"
	"github.com/teslashibe/rtvi-console/pkg/web"
)

func main() {
	config.LoadDotEnv()

	fs := pflag.NewFlagSet("consolectl", pflag.ExitOnError)
	server := fs.String("server", config.Env("CONSOLE_URL", "http://localhost:"+config.DefaultPort), "console base URL")
	client := fs.String("client", "", "client id (empty selects the global settings)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: consolectl [flags] start|flat|watch")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &ctl{base: strings.TrimRight(*server, "/"), http: httpc.Client}

	var err error
	switch fs.Arg(0) {
	case "start":
		err = c.start(ctx, *client)
	case "flat":
		err = c.flat(ctx, *client)
	case "watch":
		err = c.watch(ctx)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "consolectl: %v\n", err)
		os.Exit(1)
	}
}

type ctl struct {
	base string
	http *http.Client
}

func settingsPath(client string) string {
	if client == "" {
		return "/api/call-settings"
	}
	return "/api/call-settings/" + url.PathEscape(client)
}

func (c *ctl) start(ctx context.Context, client string) error {
	var cs callconfig.CallSettings
	if err := c.call(ctx, http.MethodGet, settingsPath(client), nil, &cs); err != nil {
		return fmt.Errorf("fetch settings: %w", err)
	}

	var res session.Result
	req := web.ConnectRequest{Services: cs.Services, Config: cs.Config}
	if err := c.call(ctx, http.MethodPost, "/api/connect", req, &res); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return printJSON(res)
}

func (c *ctl) flat(ctx context.Context, client string) error {
	var flat callconfig.FlatSettings
	if err := c.call(ctx, http.MethodGet, settingsPath(client)+"/flat", nil, &flat); err != nil {
		return err
	}
	return printJSON(flat)
}

func (c *ctl) watch(ctx context.Context) error {
	u, err := url.Parse(c.base)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = web.SessionsPath

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type != hub.TypeSession {
			continue
		}
		var ev session.Event
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			continue
		}
		fmt.Println(formatEvent(ev))
	}
}

func formatEvent(ev session.Event) string {
	line := fmt.Sprintf("%s  %-8.8s  %-15s", ev.Time.Local().Format("15:04:05"), ev.RequestID, ev.State)
	if ev.RoomURL != "" {
		line += "  " + ev.RoomURL
	}
	for _, w := range ev.Warnings {
		line += "  [" + w.String() + "]"
	}
	if ev.Error != "" {
		line += "  error: " + ev.Error
	}
	return line
}

func (c *ctl) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e web.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			if e.Step != "" {
				return fmt.Errorf("%s (after %s, status %d)", e.Error, e.Step, resp.StatusCode)
			}
			return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
