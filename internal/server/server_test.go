package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"foodconnect/internal/kv"
	"foodconnect/internal/session"
	"foodconnect/internal/store"
	"foodconnect/internal/workflow"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
)

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type testApp struct {
	t          *testing.T
	srv        *httptest.Server
	client     *http.Client
	volunteers *store.VolunteerRepository
	donations  *store.DonationRepository
}

func key(b byte) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{b}, 32))
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger, _ := test.NewNullLogger()
	mem := kv.NewMemory()

	volunteers := store.NewVolunteerRepository(mem, logger)
	donations := store.NewDonationRepository(mem, logger)
	sessions := store.NewSessionRepository(mem, logger)

	manager, err := session.NewManager(sessions, bytes.Repeat([]byte("s"), 32), time.Hour, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	config := &types.Config{
		Environment:    "development",
		CookieName:     "session_id",
		MaxPhotoBytes:  1 << 20,
		CookieHashKey:  key('h'),
		CookieBlockKey: key('b'),
		CSRFAuthKey:    key('c'),
	}

	svc, err := New(
		config,
		logger,
		manager,
		workflow.NewAccountService(volunteers, logger),
		workflow.NewDonationService(mem, donations, volunteers, nil, logger),
		workflow.NewProfileService(mem, volunteers, sessions, logger),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testApp{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		volunteers: volunteers,
		donations:  donations,
	}
}

func (a *testApp) seedVolunteer(id, email, password string, role types.Role) {
	a.t.Helper()

	hash, err := workflow.HashPassword(password)
	if err != nil {
		a.t.Fatalf("hash: %v", err)
	}

	err = a.volunteers.Create(context.Background(), &types.Volunteer{
		ID:       id,
		FullName: strings.ToUpper(id[:1]) + id[1:],
		Email:    email,
		Password: hash,
		Role:     role,
	})
	if err != nil {
		a.t.Fatalf("seed volunteer: %v", err)
	}
}

func (a *testApp) get(path string) *http.Response {
	a.t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) body(resp *http.Response) string {
	a.t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// csrfToken loads page and returns the token from its first form.
func (a *testApp) csrfToken(page string) string {
	a.t.Helper()
	resp := a.get(page)
	if resp.StatusCode != http.StatusOK {
		a.t.Fatalf("GET %s: expected 200, got %d", page, resp.StatusCode)
	}

	m := csrfInput.FindStringSubmatch(a.body(resp))
	if m == nil {
		a.t.Fatalf("no csrf token on %s", page)
	}
	return m[1]
}

func (a *testApp) post(path, tokenPage string, values url.Values) *http.Response {
	a.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", a.csrfToken(tokenPage))

	resp, err := a.client.PostForm(a.srv.URL+path, values)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) login(email, password string) *http.Response {
	a.t.Helper()
	return a.post("/login", "/login", url.Values{"email": {email}, "password": {password}})
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

func TestProtectedRoutesRedirectAnonymousUsers(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/volunteer/pickup",
		"/volunteer/activities",
		"/volunteer/profile",
		"/admin/volunteers",
		"/admin/donations",
		"/admin/donations/d1",
	} {
		resp := app.get(path)
		if resp.StatusCode != http.StatusSeeOther || location(resp) != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, resp.StatusCode, location(resp))
		}
	}
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/login", "/signup", "/health"} {
		if resp := app.get(path); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	if resp := app.get("/no-such-page"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	tests := []struct {
		name string
		role types.Role
		home string
	}{
		{name: "admin", role: types.RoleAdmin, home: "/admin/volunteers"},
		{name: "volunteer", role: types.RoleVolunteer, home: "/volunteer/pickup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.seedVolunteer(tt.name, tt.name+"@foodconnect.com", "password-1", tt.role)

			resp := app.login(tt.name+"@foodconnect.com", "password-1")
			if resp.StatusCode != http.StatusSeeOther || location(resp) != tt.home {
				t.Fatalf("expected redirect to %s, got %d %q", tt.home, resp.StatusCode, location(resp))
			}

			if resp := app.get(tt.home); resp.StatusCode != http.StatusOK {
				t.Fatalf("home page: expected 200, got %d", resp.StatusCode)
			}
		})
	}
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)

	app.get("/volunteer/activities")

	resp := app.login("asha@example.com", "password-1")
	if location(resp) != "/volunteer/activities" {
		t.Fatalf("expected redirect back to activities, got %q", location(resp))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)

	resp := app.login("asha@example.com", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(app.body(resp), "Invalid email or password") {
		t.Fatal("expected login error message")
	}

	if resp := app.get("/volunteer/pickup"); location(resp) != "/login" {
		t.Fatalf("failed login must not create a session, got %q", location(resp))
	}
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)

	app.get("/login")
	resp, err := app.client.PostForm(app.srv.URL+"/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"password-1"},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestVolunteerRoleGate(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)
	app.login("asha@example.com", "password-1")

	if resp := app.get("/admin/donations"); resp.StatusCode != http.StatusSeeOther || location(resp) != "/login" {
		t.Fatalf("volunteer reached admin donations: %d %q", resp.StatusCode, location(resp))
	}

	if resp := app.get("/admin/volunteers"); resp.StatusCode != http.StatusOK {
		t.Fatalf("volunteers list is open to signed in users, got %d", resp.StatusCode)
	}
}

func TestSignupSignsInAndLandsOnPickup(t *testing.T) {
	app := newTestApp(t)

	resp := app.post("/signup", "/signup", url.Values{
		"fullName":         {"Ravi Kumar"},
		"email":            {"ravi@example.com"},
		"enrollmentNumber": {"E1001"},
		"year":             {"1"},
		"password":         {"password-1"},
		"confirmPassword":  {"password-1"},
	})
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(location(resp), "/volunteer/pickup") {
		t.Fatalf("expected redirect to pickup, got %d %q", resp.StatusCode, location(resp))
	}

	if resp := app.get("/volunteer/pickup"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected signed in after signup, got %d", resp.StatusCode)
	}

	if _, err := app.volunteers.VolunteerByEmail(context.Background(), "ravi@example.com"); err != nil {
		t.Fatalf("volunteer not stored: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)

	resp := app.post("/signup", "/signup", url.Values{
		"fullName":         {"Other Asha"},
		"email":            {"asha@example.com"},
		"enrollmentNumber": {"E1002"},
		"year":             {"2"},
		"password":         {"password-2"},
		"confirmPassword":  {"password-2"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(app.body(resp), "already registered") {
		t.Fatal("expected duplicate email message")
	}
}

func TestSubmitPickupAndListActivities(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)
	app.login("asha@example.com", "password-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"csrf_token":     app.csrfToken("/volunteer/pickup"),
		"messName":       "North Mess",
		"foodType":       "non-veg",
		"category":       "Rice",
		"useBefore":      "2024-06-01",
		"additionalInfo": "Two trays",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/volunteer/pickup", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatalf("post pickup: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after submit, got %d", resp.StatusCode)
	}

	donations, err := app.donations.DonationsByVolunteer(context.Background(), "asha")
	if err != nil {
		t.Fatalf("donations: %v", err)
	}
	if len(donations) != 1 || donations[0].Status != types.DonationStatusPending || donations[0].FoodType != types.FoodTypeNonVeg {
		t.Fatalf("unexpected donations %#v", donations)
	}

	activities := app.get("/volunteer/activities")
	if !strings.Contains(app.body(activities), "North Mess") {
		t.Fatal("submitted donation missing from activities")
	}
}

func TestAdminApprovesDonation(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedVolunteer("admin", "admin@foodconnect.com", "password-1", types.RoleAdmin)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)

	err := app.donations.Create(ctx, &types.Donation{
		ID:            "d1",
		VolunteerID:   "asha",
		VolunteerName: "Asha",
		MessName:      "North Mess",
		Category:      types.FoodCategoryRice,
		Status:        types.DonationStatusPending,
	})
	if err != nil {
		t.Fatalf("seed donation: %v", err)
	}

	app.login("admin@foodconnect.com", "password-1")

	detail := app.get("/admin/donations/d1")
	if detail.StatusCode != http.StatusOK {
		t.Fatalf("expected donation detail page, got %d %q", detail.StatusCode, location(detail))
	}
	if page := app.body(detail); !strings.Contains(page, "North Mess") || !strings.Contains(page, "/admin/donations/d1/approve") {
		t.Fatal("detail page does not show the requested donation")
	}

	resp := app.post("/admin/donations/d1/approve", "/admin/donations/d1", url.Values{"credits": {"5"}})
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(location(resp), "/admin/donations?notice=") {
		t.Fatalf("expected redirect with notice, got %d %q", resp.StatusCode, location(resp))
	}

	d, err := app.donations.Donation(ctx, "d1")
	if err != nil {
		t.Fatalf("donation: %v", err)
	}
	if d.Status != types.DonationStatusApproved || d.Credits == nil || *d.Credits != 5 {
		t.Fatalf("unexpected donation %#v", d)
	}

	v, err := app.volunteers.Volunteer(ctx, "asha")
	if err != nil {
		t.Fatalf("volunteer: %v", err)
	}
	if v.TotalCredits != 5 || v.DonationsCompleted != 1 {
		t.Fatalf("unexpected counters %d/%d", v.TotalCredits, v.DonationsCompleted)
	}

	// The review forms are gone once reviewed, so take the token from the profile page.
	again := app.post("/admin/donations/d1/reject", "/volunteer/profile", nil)
	if !strings.HasPrefix(location(again), "/admin/donations/d1?error=") {
		t.Fatalf("expected reviewed donation to be refused, got %q", location(again))
	}
}

func TestAdminApproveOutOfRange(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedVolunteer("admin", "admin@foodconnect.com", "password-1", types.RoleAdmin)

	if err := app.donations.Create(ctx, &types.Donation{ID: "d1", VolunteerID: "x", Status: types.DonationStatusPending}); err != nil {
		t.Fatalf("seed donation: %v", err)
	}

	app.login("admin@foodconnect.com", "password-1")

	resp := app.post("/admin/donations/d1/approve", "/admin/donations/d1", url.Values{"credits": {"11"}})
	if !strings.HasPrefix(location(resp), "/admin/donations/d1?error=") {
		t.Fatalf("expected error redirect, got %q", location(resp))
	}

	d, _ := app.donations.Donation(ctx, "d1")
	if d.Status != types.DonationStatusPending {
		t.Fatalf("donation changed to %s", d.Status)
	}
}

func TestUnknownDonationRedirectsToList(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("admin", "admin@foodconnect.com", "password-1", types.RoleAdmin)
	app.login("admin@foodconnect.com", "password-1")

	resp := app.get("/admin/donations/missing")
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(location(resp), "/admin/donations?error=") {
		t.Fatalf("expected redirect to list, got %d %q", resp.StatusCode, location(resp))
	}
}

func TestProfileUpdates(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)
	app.login("asha@example.com", "password-1")

	resp := app.post("/volunteer/profile/name", "/volunteer/profile", url.Values{"fullName": {"Asha Patil"}})
	if !strings.HasPrefix(location(resp), "/volunteer/profile?notice=") {
		t.Fatalf("expected success notice, got %q", location(resp))
	}

	v, _ := app.volunteers.Volunteer(ctx, "asha")
	if v.FullName != "Asha Patil" {
		t.Fatalf("name not updated: %q", v.FullName)
	}
	if !strings.Contains(app.body(app.get("/volunteer/profile")), "Asha Patil") {
		t.Fatal("session user not refreshed")
	}

	wrong := app.post("/volunteer/profile/password", "/volunteer/profile", url.Values{
		"currentPassword": {"nope"},
		"newPassword":     {"password-2"},
		"confirmPassword": {"password-2"},
	})
	if !strings.Contains(location(wrong), url.QueryEscape("Current password is incorrect")) {
		t.Fatalf("expected incorrect password error, got %q", location(wrong))
	}

	mismatch := app.post("/volunteer/profile/password", "/volunteer/profile", url.Values{
		"currentPassword": {"password-1"},
		"newPassword":     {"password-2"},
		"confirmPassword": {"password-3"},
	})
	if !strings.Contains(location(mismatch), "error=") {
		t.Fatalf("expected mismatch error, got %q", location(mismatch))
	}

	ok := app.post("/volunteer/profile/password", "/volunteer/profile", url.Values{
		"currentPassword": {"password-1"},
		"newPassword":     {"password-2"},
		"confirmPassword": {"password-2"},
	})
	if !strings.HasPrefix(location(ok), "/volunteer/profile?notice=") {
		t.Fatalf("expected success notice, got %q", location(ok))
	}

	v, _ = app.volunteers.Volunteer(ctx, "asha")
	if err := workflow.CheckPassword(v.Password, "password-2"); err != nil {
		t.Fatal("password not updated")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	app.seedVolunteer("asha", "asha@example.com", "password-1", types.RoleVolunteer)
	app.login("asha@example.com", "password-1")

	sessionURL, _ := url.Parse(app.srv.URL)
	var sessionCookie *http.Cookie
	for _, c := range app.client.Jar.Cookies(sessionURL) {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie after login")
	}

	resp := app.post("/logout", "/volunteer/profile", nil)
	if !strings.HasPrefix(location(resp), "/login") {
		t.Fatalf("expected redirect to login, got %q", location(resp))
	}

	if resp := app.get("/volunteer/pickup"); location(resp) != "/login" {
		t.Fatalf("still signed in after logout: %q", location(resp))
	}

	// Replaying the old cookie must not work either.
	req, _ := http.NewRequest(http.MethodGet, app.srv.URL+"/volunteer/pickup", nil)
	req.AddCookie(sessionCookie)
	replay, err := (&http.Client{CheckRedirect: app.client.CheckRedirect}).Do(req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	defer replay.Body.Close()
	if location(replay) != "/login" {
		t.Fatalf("revoked cookie still accepted: %d %q", replay.StatusCode, location(replay))
	}
}
