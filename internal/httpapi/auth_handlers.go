package httpapi

import (
	"net/http"
	"strings"

	"campusgate.org/internal/audit"
	"campusgate.org/internal/auth"
)

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Name            string `json:"name"`
	UserName        string `json:"user_name"`
	LoggedInDevices int    `json:"logged_in_devices"`
	Token           string `json:"token"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" || req.Password == "" {
		writeFailure(r.Context(), w, http.StatusBadRequest, "user_name and password are required")
		return
	}

	result, err := a.auth.Login(r.Context(), req.UserName, req.Password, r.UserAgent())
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
			"user_name": req.UserName,
		})
		writeError(r.Context(), w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login.succeeded", map[string]any{
		"user_name": result.UserName,
		"devices":   result.LoggedInDevices,
	})
	writeSuccess(w, http.StatusOK, loginResponse{
		Name:            result.Name,
		UserName:        result.UserName,
		LoggedInDevices: result.LoggedInDevices,
		Token:           result.Token,
	}, "login successful")
}

type signupRequest struct {
	Name            string `json:"name"`
	UserName        string `json:"user_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.UserName = strings.TrimSpace(req.UserName)
	if req.Name == "" || req.UserName == "" || req.Password == "" {
		writeFailure(r.Context(), w, http.StatusBadRequest, "name, user_name and password are required")
		return
	}

	admin, err := a.auth.Signup(r.Context(), req.Name, req.UserName, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user_name": admin.UserName,
	})
	writeSuccess(w, http.StatusOK, map[string]any{
		"name":      admin.Name,
		"user_name": admin.UserName,
	}, "account created")
}

type passwordResetRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

func (a *API) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeFailure(r.Context(), w, http.StatusForbidden, "forbidden")
		return
	}
	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	err := a.auth.ResetPassword(r.Context(), claims.Subject, claims.SessionID,
		req.OldPassword, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password.reset", nil)
	writeSuccess(w, http.StatusOK, nil, "password updated, please log in again")
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeFailure(r.Context(), w, http.StatusForbidden, "forbidden")
		return
	}

	if err := a.auth.Logout(r.Context(), claims.Subject, claims.SessionID); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeFailure(r.Context(), w, http.StatusForbidden, "forbidden")
		return
	}

	if err := a.auth.DeleteAccount(r.Context(), claims.Subject); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.account.deleted", nil)
	writeSuccess(w, http.StatusOK, nil, "account deleted")
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeFailure(r.Context(), w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := a.auth.Verify(r.Context(), claims.Subject); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "authorized")
}
