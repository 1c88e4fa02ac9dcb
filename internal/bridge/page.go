package bridge

import (
	_ "embed"
	"net/http"
)

// companionPage renders the form and drives the Web Speech API for the daemon.
//
//go:embed page.html
var companionPage []byte

// servePage answers plain requests on the bridge path with the companion page,
// which then dials back to the same path.
func servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(companionPage)
}
