package integration

import (
	"net/http"
	"testing"
)

func TestSettingsFlow_UpsertGetDelete(t *testing.T) {
	app := setupApp(t)
	userToken, _ := app.registerUser(t, "settings@test.com", "password123")

	// Create a setting
	rec := app.request("PUT", "/api/v1/settings/currency", `{"value":"EUR"}`, userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	setting := parseJSON(t, rec)["setting"].(map[string]interface{})
	if setting["value"] != "EUR" {
		t.Errorf("expected value EUR, got %v", setting["value"])
	}

	// Upsert overwrites in place
	rec = app.request("PUT", "/api/v1/settings/currency", `{"value":"USD"}`, userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("PUT", "/api/v1/settings/locale", `{"value":"en-GB"}`, userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/settings", "", userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	settings := parseJSON(t, rec)["settings"].([]interface{})
	if len(settings) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(settings))
	}
	first := settings[0].(map[string]interface{})
	if first["key"] != "currency" || first["value"] != "USD" {
		t.Errorf("expected currency=USD first, got %v=%v", first["key"], first["value"])
	}

	// Delete one
	rec = app.request("DELETE", "/api/v1/settings/currency", "", userToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("DELETE", "/api/v1/settings/currency", "", userToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for repeat delete, got %d", rec.Code)
	}
}

func TestSettingsFlow_ScopedToUser(t *testing.T) {
	app := setupApp(t)
	aliceToken, _ := app.registerUser(t, "alice-settings@test.com", "password123")
	bobToken, _ := app.registerUser(t, "bob-settings@test.com", "password123")

	rec := app.request("PUT", "/api/v1/settings/theme", `{"value":"dark"}`, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Bob sees none of Alice's settings
	rec = app.request("GET", "/api/v1/settings", "", bobToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	settings := parseJSON(t, rec)["settings"].([]interface{})
	if len(settings) != 0 {
		t.Errorf("expected 0 settings for other user, got %d", len(settings))
	}
}
