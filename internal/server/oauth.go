package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sephire/internal/session"
	"github.com/desertthunder/sephire/internal/shared"
)

// AuthHandler drives the OAuth2 authorization-code flow over HTTP.
// Implements the Handler interface for registration with a Router.
type AuthHandler struct {
	session *session.Manager
	logger  *log.Logger
	result  chan error
}

// NewAuthHandler creates an auth handler bound to the given session manager.
func NewAuthHandler(mgr *session.Manager, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthHandler{session: mgr, logger: logger, result: make(chan error, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

// ServeHTTP dispatches login and callback requests.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.handleLogin(w, r)
	case "/callback":
		h.handleCallback(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleLogin starts a fresh authorization flow and redirects to the provider.
//
// Starting a new flow invalidates any earlier pending login.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.session.StartLogin()
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("redirecting to provider authorization endpoint")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes the authorization flow.
//
// Validates the state parameter, exchanges the authorization code for tokens
// and populates the session. The state is consumed either way, so a replayed
// callback fails.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("provider returned authorization error", "error", errParam)
		// Consume the pending state; an empty code fails the callback.
		code = ""
	}

	err := h.session.HandleCallback(r.Context(), code, state)
	h.send(err)
	if err != nil {
		h.logger.Warn("authorization callback failed", "error", err)
		writeError(w, err)
		return
	}

	h.logger.Info("authorization successful")

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackSuccessPage)
}

// send reports the callback outcome without blocking. When nothing is
// waiting (long-running serve mode), the result is dropped.
func (h *AuthHandler) send(err error) {
	select {
	case h.result <- err:
	default:
	}
}

// Result returns a channel that receives the outcome of the next processed
// callback. Used by the CLI flow to wait for authorization to complete.
func (h *AuthHandler) Result() <-chan error {
	return h.result
}

const callbackSuccessPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window. Data endpoints are ready to use.</p>
    </div>
</body>
</html>
`
