package internal

import "net/http"

// authHandlers holds the login and callback routes mounted when session
// storage is configured.
type authHandlers struct {
	storage *SessionStorage
}

// login sends the browser to the provider consent screen with the
// session's state.
func (h *authHandlers) login(s *Session) (Response, error) {
	return Redirect(http.StatusFound, s.AuthorizationURL()), nil
}

// callback completes the code/state flow and lands the user back on the
// dashboard. State mismatches are 403, double authorization is 400; the
// session stays anonymous in both cases.
func (h *authHandlers) callback(r *Request, s *Session) (Response, error) {
	code := r.Query("code")
	if code == "" {
		return nil, &RequestValidationError{Part: PartQueryParams, Name: "code"}
	}

	if err := h.storage.CompleteAuthorization(r.Context(), r, code, r.Query("state")); err != nil {
		return nil, err
	}

	return Redirect(http.StatusFound, landingPath), nil
}
