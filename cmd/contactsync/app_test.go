package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli"
)

func TestMintToken_PrintsClaimsNotToken(t *testing.T) {
	dir := writeFixture(t, "https://wechat.example.com", "https://whatsapp.example.com")

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run([]string{"contactsync", "mint-token",
		"--config", filepath.Join(dir, "config.json"),
		"--base-dir", dir,
		"--network", "whatsapp",
	})
	if err != nil {
		t.Fatalf("mint-token: %v", err)
	}

	var printed struct {
		Network string         `json:"network"`
		Header  map[string]any `json:"header"`
		Claims  map[string]any `json:"claims"`
	}
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if printed.Network != "WHATSAPP" {
		t.Fatalf("expected WHATSAPP, got %q", printed.Network)
	}
	if printed.Header["alg"] != "RS512" {
		t.Fatalf("expected RS512 header, got %#v", printed.Header["alg"])
	}
	if printed.Claims["sub"] != "ces:customer:wa-key" {
		t.Fatalf("expected whatsapp subject, got %#v", printed.Claims["sub"])
	}
	exp, _ := printed.Claims["exp"].(float64)
	iat, _ := printed.Claims["iat"].(float64)
	if exp-iat != 290 {
		t.Fatalf("expected 290s lifetime, got %v", exp-iat)
	}
	if strings.Contains(out.String(), "eyJ") {
		t.Fatalf("expected raw token to stay out of the output, got %q", out.String())
	}
}

func TestMintToken_RejectsUnknownNetwork(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}
	if err := app.Run([]string{"contactsync", "mint-token", "--network", "TELEGRAM"}); err == nil {
		t.Fatalf("expected unknown network error")
	}
}

func TestRun_ProcessesFileAndRecordsHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c-9"}`))
	}))
	defer server.Close()

	dir := writeFixture(t, server.URL, server.URL)
	input := filepath.Join(dir, "input.csv")
	output := filepath.Join(dir, "output.csv")
	metrics := filepath.Join(dir, "contacts.prom")
	dsn := fmt.Sprintf("file:contactsync-cli-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())

	rows := "WECHAT,ADD,Jane,Doe,Acme,jane@x.com,555-1234,adv1@x.com\n" +
		"WECHAT,UPSERT,Jane,Doe,Acme,jane@x.com,555-1234,adv1@x.com\n"
	if err := os.WriteFile(input, []byte(rows), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run([]string{"contactsync", "run",
		"--config", filepath.Join(dir, "config.json"),
		"--base-dir", dir,
		"--input", input,
		"--output", output,
		"--history-dsn", dsn,
		"--metrics-file", metrics,
		"--log-level", "debug",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "2 rows, 1 ok, 0 error, 1 skipped, 0 failed") {
		t.Fatalf("unexpected summary %q", out.String())
	}

	report, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "ERROR - Invalid Contact Action - SKIPPED") {
		t.Fatalf("expected skipped action in report, got %q", string(report))
	}

	prom, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "contacts_rows_total") {
		t.Fatalf("expected row metrics, got %q", string(prom))
	}
}

func writeFixture(t *testing.T, wechatURL string, whatsappURL string) string {
	t.Helper()
	dir := t.TempDir()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "keys"), 0o700); err != nil {
		t.Fatalf("mkdir keys: %v", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(filepath.Join(dir, "keys", "bot.pem"), block, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	config := map[string]any{
		"podId":                "pod-1",
		"wechat_apiURL":        wechatURL,
		"whatsapp_apiURL":      whatsappURL,
		"wechat_publicKeyId":   "wc-key",
		"whatsapp_publicKeyId": "wa-key",
		"privateKeyPath":       "keys",
		"privateKeyName":       "bot.pem",
	}
	raw, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}
