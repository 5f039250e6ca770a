package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resendRequest struct {
	Email string `json:"email"`
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.accounts.Signup(r.Context(), req, origin(r))
	if err != nil {
		respondWithServiceError(w, err, "sign up")
		return
	}
	s.metrics.signups.Inc()

	respondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "log in")
		return
	}
	if err := s.sessions.Login(w, user); err != nil {
		respondWithServiceError(w, err, "log in")
		return
	}

	respondWithJSON(w, http.StatusOK, service.ToUserResponse(user))
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.accounts.ResendVerification(r.Context(), req.Email, origin(r)); err != nil {
		log.Printf("Error resending verification mail: %v", err)
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an unverified account uses this email, a new verification link has been sent.",
	})
}

// verifyHandler redeems the code from a verification link and renders the
// outcome as an HTML page.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	user, err := s.verifier.Verify(r.Context(), code)
	switch {
	case err == nil:
		s.metrics.verifications.WithLabelValues("success").Inc()
		s.views.render(w, http.StatusOK, successView, user)
	case errors.Is(err, service.ErrInvalidToken):
		s.metrics.verifications.WithLabelValues("invalid").Inc()
		s.views.render(w, http.StatusOK, failureView, nil)
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.verifications.WithLabelValues("unknown_user").Inc()
		respondWithError(w, http.StatusNotFound, "No account matches this verification link")
	default:
		respondWithServiceError(w, err, "verify email")
	}
}

// origin returns scheme://host of the request as the client addressed it.
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
