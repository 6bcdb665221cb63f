package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"duo-chat/contract"
	"duo-chat/domain"
	"duo-chat/errors"
	"duo-chat/services"
)

const defaultSearchLimit = 20

// API is the HTTP read/auth surface around the live routing core:
// credential issuance, profile, message history, full-text search, the
// people directory and static attachment serving.
type API struct {
	log        *slog.Logger
	auth       services.IAuthService
	chat       services.IChatService
	verifier   contract.IIdentityVerifier
	uploadsDir string
}

func New(log *slog.Logger, auth services.IAuthService, chat services.IChatService, verifier contract.IIdentityVerifier, uploadsDir string) *API {
	return &API{log: log, auth: auth, chat: chat, verifier: verifier, uploadsDir: uploadsDir}
}

// Router wires every endpoint, including the websocket upgrade handler
// owned by the transport layer.
func (a *API) Router(wsHandler http.HandlerFunc) *httprouter.Router {
	router := httprouter.New()
	router.HandlerFunc(http.MethodPost, "/register", a.register)
	router.HandlerFunc(http.MethodPost, "/login", a.login)
	router.HandlerFunc(http.MethodPost, "/logout", a.logout)
	router.HandlerFunc(http.MethodGet, "/profile", a.profile)
	router.GET("/messages/:userId", a.messages)
	router.HandlerFunc(http.MethodGet, "/search", a.search)
	router.HandlerFunc(http.MethodGet, "/people", a.people)
	router.HandlerFunc(http.MethodGet, "/ws", wsHandler)
	router.ServeFiles("/uploads/*filepath", http.Dir(a.uploadsDir))
	return router
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	session, err := a.auth.Register(req.Username, req.Password)
	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case stderrors.Is(err, errors.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		a.log.Error("Registration failed", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	setTokenCookie(w, session.Token)
	writeJSON(w, http.StatusCreated, map[string]string{"id": session.UserID})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	session, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
		return
	}

	setTokenCookie(w, session.Token)
	writeJSON(w, http.StatusOK, map[string]string{"id": session.UserID})
}

func (a *API) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, "ok")
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.identify(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"userId":   identity.UserID,
		"username": identity.Username,
	})
}

// messages returns the conversation between the caller and :userId in
// chronological order.
func (a *API) messages(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	identity, ok := a.identify(w, r)
	if !ok {
		return
	}

	conversation, err := a.chat.Conversation(identity.UserID, params.ByName("userId"))
	if err != nil {
		a.log.Error("Conversation query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if conversation == nil {
		conversation = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, conversation)
}

// search runs a full-text query over the caller's conversations.
func (a *API) search(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.identify(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	hits, err := a.chat.Search(r.Context(), identity.UserID, query, limit)
	if err != nil {
		a.log.Error("Search query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "search unavailable")
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (a *API) people(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.identify(w, r); !ok {
		return
	}

	people, err := a.auth.People()
	if err != nil {
		a.log.Error("People query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// identify resolves the caller from the token cookie. Unlike the websocket
// handshake, the read API has no anonymous mode: no valid token, no data.
func (a *API) identify(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	cookie, err := r.Cookie("token")
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "no token")
		return domain.Identity{}, false
	}

	identity, err := a.verifier.Verify(cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return domain.Identity{}, false
	}
	return identity, true
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
