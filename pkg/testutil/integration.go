package testutil

import (
	"os"
	"strconv"
	"testing"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
)

// Environment variables that point integration tests at a live FTP server.
const (
	EnvFTPHost     = "NEBULA_FTP_TEST_HOST"
	EnvFTPPort     = "NEBULA_FTP_TEST_PORT"
	EnvFTPUser     = "NEBULA_FTP_TEST_USER"
	EnvFTPPassword = "NEBULA_FTP_TEST_PASSWORD"
	EnvFTPRoot     = "NEBULA_FTP_TEST_ROOT"
)

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// FTPServer returns the server configured through the NEBULA_FTP_TEST_*
// variables and the writable directory to use on it. The test is skipped
// when no host is configured.
func FTPServer(t *testing.T) (config.ServerConfig, string) {
	t.Helper()
	IntegrationTest(t)

	host := os.Getenv(EnvFTPHost)
	if host == "" {
		t.Skipf("%s not set", EnvFTPHost)
	}
	port := 21
	if raw := os.Getenv(EnvFTPPort); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			t.Fatalf("invalid %s %q: %v", EnvFTPPort, raw, err)
		}
		port = p
	}
	root := os.Getenv(EnvFTPRoot)
	if root == "" {
		root = "/nebula-ftp-test"
	}

	return config.ServerConfig{
		Kind:     config.TransportFTP,
		Host:     host,
		Port:     port,
		Username: os.Getenv(EnvFTPUser),
		Password: os.Getenv(EnvFTPPassword),
	}, root
}
