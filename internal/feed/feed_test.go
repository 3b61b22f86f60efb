package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Engineering Jobs</title>
    <item>
      <guid>job-1</guid>
      <title>Senior Go Engineer</title>
      <link>https://jobs.example.com/1</link>
      <description>&lt;p&gt;Build distributed systems.&lt;/p&gt;</description>
      <author>hiring@acme.example.com (Acme)</author>
      <pubDate>Mon, 04 Aug 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <guid>job-2</guid>
      <title>Platform Engineer</title>
      <link>https://jobs.example.com/2</link>
      <description>Keep the lights on.</description>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Jobs</title>
  <id>urn:jobs</id>
  <updated>2025-08-04T10:00:00Z</updated>
  <entry>
    <id>urn:job-3</id>
    <title>SRE</title>
    <link href="https://jobs.example.com/3"/>
    <updated>2025-08-04T10:00:00Z</updated>
    <content type="html">&lt;p&gt;On-call rotation.&lt;/p&gt;</content>
  </entry>
</feed>`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected user agent: %q", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	client := New(zaptest.NewLogger(t))

	entries, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.GUID != "job-1" {
		t.Errorf("unexpected guid: %q", first.GUID)
	}
	if first.Title != "Senior Go Engineer" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Link != "https://jobs.example.com/1" {
		t.Errorf("unexpected link: %q", first.Link)
	}
	if first.Summary != "<p>Build distributed systems.</p>" {
		t.Errorf("unexpected summary: %q", first.Summary)
	}
	if first.Published == nil {
		t.Error("expected published time")
	}

	if entries[1].Published != nil {
		t.Errorf("expected nil published for second entry, got %v", entries[1].Published)
	}
}

func TestFetchAtomContentFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer srv.Close()

	client := New(zaptest.NewLogger(t))

	entries, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Summary != "<p>On-call rotation.</p>" {
		t.Errorf("expected content fallback, got %q", entries[0].Summary)
	}
	if entries[0].Published == nil {
		t.Error("expected updated time fallback")
	}
}

func TestFetchErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("this is not a feed"))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := New(zaptest.NewLogger(t))

			_, err := client.Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("expected error")
			}

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %T", err)
			}
			if fetchErr.URL != srv.URL {
				t.Errorf("unexpected url in error: %q", fetchErr.URL)
			}
		})
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	client := New(zaptest.NewLogger(t))

	// Closed server, the port refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := client.Fetch(context.Background(), url)
	if err == nil {
		t.Fatal("expected error")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
}
