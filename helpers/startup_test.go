package helpers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestReadYamlConfigFile(t *testing.T) {
	appCnf, err := ReadYamlConfigFile(filepath.Join("..", "test", "config.yaml"))
	if err != nil {
		t.Fatalf("ReadYamlConfigFile() error = %v", err)
	}
	if appCnf.RootWorkingDir == "" {
		t.Error("root working dir should be set")
	}
	if appCnf.DatabaseInfo.Prefix != "vx_" {
		t.Errorf("unexpected database prefix %q", appCnf.DatabaseInfo.Prefix)
	}
}

func TestReadYamlConfigFile_Errors(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(broken, []byte("client: [\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{broken, filepath.Join(t.TempDir(), "missing.yaml")} {
		if _, err := ReadYamlConfigFile(f); err == nil {
			t.Errorf("expected an error for %s", f)
		}
	}
}

func TestConnectWithRetry(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	attempts := 0
	err := connectWithRetry(context.Background(), l, "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success on the third attempt, got %v after %d attempts", err, attempts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = connectWithRetry(ctx, l, "test", func() error {
		return errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected an error once the context is done")
	}
}
