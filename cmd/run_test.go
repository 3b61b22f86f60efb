package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Engineering Jobs</title>
    <item>
      <guid>job-1</guid>
      <title>Senior Go Engineer</title>
      <link>https://jobs.example.com/1</link>
      <description>&lt;p&gt;Build distributed systems.&lt;/p&gt;</description>
      <author>hiring@acme.example.com (Acme)</author>
    </item>
  </channel>
</rss>`

// TestMain pins one working directory for the package. The run command
// discovers jobtailor.yaml in the current directory, and viper caches the
// first config file it finds for the life of the process, so every test
// here shares this directory and this file.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "jobtailor-cmd")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile(filepath.Join(dir, "jobtailor.yaml"), []byte("threshold: 0.25\n"), 0o600); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func startFeedServer(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedFixture))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeMasterResume(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "master.md")
	if err := os.WriteFile(path, []byte("# Me\n10 years of Go.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// captureStdout runs fn with os.Stdout redirected into a pipe and returns
// everything written to it. The run command builds its logger on stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()

	fn()

	w.Close()
	return <-done
}

func logLine(logs, message string) string {
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, message) {
			return line
		}
	}
	return ""
}

func TestRunReadsDefaultConfigFile(t *testing.T) {
	feedURL := startFeedServer(t)
	master := writeMasterResume(t)

	rootCmd.SetArgs([]string{"run", "--feed", feedURL, "--master", master, "--dry-run"})
	if err := Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// 0.25 can only come from the jobtailor.yaml in the working directory;
	// the flag default is 0.7 and no test passes --threshold.
	if got := viper.GetFloat64("threshold"); got != 0.25 {
		t.Errorf("threshold from jobtailor.yaml not honored, got %v", got)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY_FILE", "")

	feedURL := startFeedServer(t)
	master := writeMasterResume(t)
	out := filepath.Join(t.TempDir(), "applications")

	rootCmd.SetArgs([]string{"run", "--feed", feedURL, "--master", master, "--out", out, "--dry-run"})

	logs := captureStdout(t, func() {
		if err := Execute(); err != nil {
			t.Errorf("execute: %v", err)
		}
	})

	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dry run must not create the output root")
	}
	if !strings.Contains(logs, "dry run complete") {
		t.Errorf("expected dry run completion, got:\n%s", logs)
	}

	finished := logLine(logs, "run finished")
	if finished == "" {
		t.Fatalf("missing run finished log:\n%s", logs)
	}
	if !strings.Contains(finished, `"jobs":1`) {
		t.Errorf("summary must count normalized jobs, got: %s", finished)
	}
}
