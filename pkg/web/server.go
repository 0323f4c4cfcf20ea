// Package web serves the embedded status endpoint: a small dashboard over the
// tracer's public operations plus raw report, folded-stack and pprof
// downloads. It runs on its own goroutines and only ever touches the tracer
// through its public surface.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/skyformat99/tracey/pkg/procmem"
	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/tracey"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
    <title>{{.Title}}</title>
</head>
<body>
    <div id="header">
        <h2>{{.Title}}</h2>
    </div>
    <div id="content">
        <p>highest peak: {{.PeakKB}} Kb // in use: {{.UsageKB}} Kb // num leaks: {{.Leaks}}</p>
        <p>process rss: {{.RSSKB}} Kb</p>
        <p>live bytes: <code>{{.Sparkline}}</code></p>
        <p><a href="/report">generate leak report (may take a while)</a></p>
        <p><a href="/folded">folded stacks</a> // <a href="/profile">pprof profile</a> // <a href="/stats.json">stats</a></p>
        <xmp>{{.Settings}}</xmp>
    </div>
</body>
</html>
`))

// Server exposes one tracer over HTTP.
type Server struct {
	tracer  *tracey.Tracer
	history *History
	srv     *http.Server
}

// sampleInterval is how often the live-byte history advances.
const sampleInterval = time.Second

// Start serves the dashboard on addr and begins sampling live bytes. It
// returns a stop function that shuts the server and the sampler down.
func Start(t *tracey.Tracer, addr string) (func(), error) {
	if addr == "" {
		addr = ":16180"
	}
	s := &Server{
		tracer:  t,
		history: NewHistory(60),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/folded", s.handleFolded)
	mux.HandleFunc("/profile", s.handleProfile)
	mux.HandleFunc("/stats.json", s.handleStats)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	done := make(chan struct{})
	go s.sample(done)

	// Give the server a moment to start and check for immediate errors
	select {
	case err := <-errCh:
		close(done)
		return nil, fmt.Errorf("dashboard server failed: %w", err)
	case <-time.After(50 * time.Millisecond):
	}

	stop := func() {
		close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}
	return stop, nil
}

func (s *Server) sample(done <-chan struct{}) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.history.Record(float64(s.tracer.Stats().LiveBytes))
		}
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	stats := s.tracer.Stats()
	var rssKB uint64
	if sample, err := procmem.Read(); err == nil {
		rssKB = sample.RSSBytes / 1024
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	dashboardTmpl.Execute(w, struct {
		Title     string
		PeakKB    uint64
		UsageKB   uint64
		Leaks     uint64
		RSSKB     uint64
		Sparkline string
		Settings  string
	}{
		Title:     "tracey dashboard",
		PeakKB:    stats.PeakBytes / 1024,
		UsageKB:   stats.LiveBytes / 1024,
		Leaks:     stats.LiveCount,
		RSSKB:     rssKB,
		Sparkline: s.history.Sparkline(),
		Settings:  s.tracer.Settings(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.tracer.Report())
}

func (s *Server) handleFolded(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.tracer.Folded())
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="tracey-leaks.pb.gz"`)
	if err := s.tracer.Profile().Write(w); err != nil {
		s.tracer.Diag().Warnf("cannot write profile: %v", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	type payload struct {
		Stats registry.Stats  `json:"stats"`
		RSS   *procmem.Sample `json:"rss,omitempty"`
	}
	p := payload{Stats: s.tracer.Stats()}
	if sample, err := procmem.Read(); err == nil {
		p.RSS = &sample
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(p)
}
