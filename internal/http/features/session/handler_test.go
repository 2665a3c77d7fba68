package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gbp-politico/gabinete/internal/httputil"
)

func TestRefresh_Validation_APIClient(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "empty body",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "refresh_token is required",
		},
		{
			name:           "empty refresh_token",
			body:           `{"refresh_token": ""}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "refresh_token is required",
		},
		{
			name:           "invalid json",
			body:           `{invalid}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	handler := &Handler{cookieConfig: httputil.DefaultCookieConfig()}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Client-Type", "api")
			rec := httptest.NewRecorder()

			handler.Refresh(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}

			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if response["error"] != tt.expectedError {
				t.Errorf("Error = %q, want %q", response["error"], tt.expectedError)
			}
		})
	}
}

func TestRefresh_WebClient_NoCookie(t *testing.T) {
	handler := &Handler{cookieConfig: httputil.DefaultCookieConfig()}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var response map[string]string
	json.NewDecoder(rec.Body).Decode(&response)
	if response["error"] != "refresh token not found" {
		t.Errorf("Error = %q, want %q", response["error"], "refresh token not found")
	}
}

func TestLogin_Validation(t *testing.T) {
	handler := &Handler{cookieConfig: httputil.DefaultCookieConfig()}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{invalid}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogout_Validation_APIClient(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		// Logout succeeds even when no token is supplied.
		{name: "empty body", body: `{}`, expectedStatus: http.StatusNoContent},
		{name: "empty refresh_token", body: `{"refresh_token": ""}`, expectedStatus: http.StatusNoContent},
		{name: "invalid json", body: `{invalid}`, expectedStatus: http.StatusBadRequest},
	}

	handler := &Handler{cookieConfig: httputil.DefaultCookieConfig()}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Client-Type", "api")
			rec := httptest.NewRecorder()

			handler.Logout(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}
		})
	}
}

func TestLogoutAll_RequiresIdentity(t *testing.T) {
	handler := &Handler{cookieConfig: httputil.DefaultCookieConfig()}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout/all", nil)
	rec := httptest.NewRecorder()

	handler.LogoutAll(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
