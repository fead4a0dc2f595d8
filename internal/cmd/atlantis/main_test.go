package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gorilla/websocket"
	"github.com/qiudaomao/atlantis/internal/eventlog"
	"github.com/qiudaomao/atlantis/internal/urlsession"
)

// runCommand runs the command line and returns the kinds of the recorded events.
func runCommand(t *testing.T, args ...string) []string {
	t.Helper()
	dir := t.TempDir()
	recordFile := filepath.Join(dir, "events.jsonl")
	args = append([]string{"--config", filepath.Join(dir, "missing.hujson"), "--record-file", recordFile}, args...)
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(recordFile)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	var kinds []string
	scanner := bufio.NewScanner(fp)
	for scanner.Scan() {
		var rec eventlog.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatal(err)
		}
		kinds = append(kinds, rec.Kind)
	}
	return kinds
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	t.Run("observes the transfer", func(t *testing.T) {
		kinds := runCommand(t, "get", srv.URL)
		expect := []string{"resumed", "response_received", "data_received", "completed"}
		if diff := cmp.Diff(expect, kinds); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("does not observe self traffic", func(t *testing.T) {
		if kinds := runCommand(t, "get", "--self-traffic", srv.URL); len(kinds) != 0 {
			t.Fatal("expected no events", kinds)
		}
	})

	t.Run("with disabled hooks", func(t *testing.T) {
		kinds := runCommand(t, "--disable-hook", "data_received", "get", srv.URL)
		expect := []string{"resumed", "response_received", "completed"}
		if diff := cmp.Diff(expect, kinds); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(w, r.Body)
	}))
	defer srv.Close()

	t.Run("data", func(t *testing.T) {
		kinds := runCommand(t, "upload", "--data", "abc", srv.URL)
		expect := []string{"uploaded", "resumed", "response_received", "data_received", "completed"}
		if diff := cmp.Diff(expect, kinds); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("without payload", func(t *testing.T) {
		cmd := newRootCommand()
		cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "x"), "upload", srv.URL})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		if err := cmd.Execute(); err != errNoPayload {
			t.Fatal("unexpected error", err)
		}
	})
}

func TestWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(kind, payload)
		}
	}))
	defer srv.Close()
	URL := "ws" + strings.TrimPrefix(srv.URL, "http")

	kinds := runCommand(t, "ws", "-m", "a", "-m", "b", URL)
	if len(kinds) < 2 || kinds[0] != "resumed" || kinds[len(kinds)-1] != "completed" {
		t.Fatal("unexpected events", kinds)
	}
	// a send may be observed before the response when queued while dialing
	expect := []string{
		"resumed",
		"response_received",
		"websocket_sent",
		"websocket_received",
		"websocket_sent",
		"websocket_received",
		"completed",
	}
	less := func(a, b string) bool { return a < b }
	if diff := cmp.Diff(expect, kinds, cmpopts.SortSlices(less)); diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlantis.hujson")
	data := []byte(`{
		// from the file
		"runtime_version": 12,
		"record_file": "file.jsonl",
	}`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("the file provides the values", func(t *testing.T) {
		cfg, err := loadConfig(&Options{ConfigFile: path})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.RuntimeVersion != 12 || cfg.RecordFile != "file.jsonl" || cfg.Level() != log.InfoLevel {
			t.Fatal("unexpected config", cfg)
		}
	})

	t.Run("the flags override the file", func(t *testing.T) {
		cfg, err := loadConfig(&Options{
			ConfigFile:     path,
			RecordFile:     "flag.jsonl",
			RuntimeVersion: urlsession.LatestVersion,
			Verbose:        true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.RuntimeVersion != urlsession.LatestVersion || cfg.RecordFile != "flag.jsonl" || cfg.Level() != log.DebugLevel {
			t.Fatal("unexpected config", cfg)
		}
	})

	t.Run("invalid flags", func(t *testing.T) {
		if _, err := loadConfig(&Options{ConfigFile: path, DisabledHooks: []string{"x"}}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := newLogHandler(&buf)
	logger := &log.Logger{Handler: handler, Level: log.DebugLevel}
	logger.WithField("task", 1).Info("started")
	line := buf.String()
	if !strings.Contains(line, "started: map[task:1]") || !strings.HasSuffix(line, "\n") {
		t.Fatal("unexpected line", line)
	}
}
