package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/cmd/adminctl/commands"
	"github.com/jrsteele09/drivesim-admin/guard"
	"github.com/jrsteele09/drivesim-admin/mockapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail = "admin@b.com"
	password   = "Secret123"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type testFixture struct {
	api       *mockapi.Server
	url       string
	storeFile string
	learner   admin.User
	session   admin.TrainingSession
	reg       admin.Registration
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	api := mockapi.New(mockapi.WithLogger(zerolog.Nop()))
	_, err := api.AddUser(admin.User{Email: adminEmail, FirstName: "Ada", LastName: "Admin"}, password)
	require.NoError(t, err)
	learner, err := api.AddUser(admin.User{Email: "learner@b.com", FirstName: "Sam", Transmission: admin.TransmissionManual}, password)
	require.NoError(t, err)
	ts := api.AddSession(admin.TrainingSession{
		Scenario: admin.Scenario{ScenarioID: "city-01", Name: "City", EnvironmentType: "URBAN", Difficulty: admin.DifficultyEasy},
		Location: "Bay 1",
		Date:     admin.Date{Time: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
	})
	reg, err := api.AddRegistration(admin.Registration{Paid: true}, learner.ID, ts.ID)
	require.NoError(t, err)

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	return &testFixture{
		api:       api,
		url:       server.URL,
		storeFile: filepath.Join(t.TempDir(), "session.json"),
		learner:   learner,
		session:   ts,
		reg:       reg,
	}
}

type result struct {
	out    string
	errOut string
	err    error
}

// run executes adminctl with a fresh root command, as a separate process would.
func (f *testFixture) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	root := commands.NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args,
		"--base-url", f.url,
		"--store", "file",
		"--store-file", f.storeFile,
		"--log-level", "error",
	))
	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	res := f.run(t, "", "login", "--email", adminEmail, "--password", password)
	require.NoError(t, res.err)
}

func TestVersion(t *testing.T) {
	root := commands.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--base-url", "://not-a-url"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "adminctl "+commands.Version)
}

func TestLogin_WhoAmI_Logout(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "login", "--email", adminEmail, "--password", password)
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Logged in as Ada Admin")

	res = f.run(t, "", "whoami", "-o", "json")
	require.NoError(t, res.err)
	var who map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.out), &who))
	require.Equal(t, adminEmail, who["email"])
	require.Equal(t, "authenticated", who["state"])
	require.NotEmpty(t, who["expiresAt"])

	res = f.run(t, "", "logout")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Logged out")
	require.Equal(t, 1, f.api.Hits(http.MethodPost, mockapi.RouteAuthLogout))

	res = f.run(t, "", "whoami")
	require.ErrorIs(t, res.err, guard.ErrLoginRequired)
	require.Contains(t, res.errOut, "Not logged in")
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, password+"\n", "login", "--email", adminEmail)
	require.NoError(t, res.err)
	require.Contains(t, res.errOut, "Password:")
	require.Contains(t, res.out, "Logged in as Ada Admin")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "login", "--email", adminEmail, "--password", "wrong")
	require.EqualError(t, res.err, "invalid email or password")

	res = f.run(t, "", "users", "list")
	require.ErrorIs(t, res.err, guard.ErrLoginRequired)
}

func TestProtectedCommands_RequireLogin(t *testing.T) {
	f := setupTestFixture(t)

	for _, args := range [][]string{
		{"status"},
		{"users", "list"},
		{"sessions", "get", "1"},
		{"registrations", "list"},
	} {
		res := f.run(t, "", args...)
		require.ErrorIs(t, res.err, guard.ErrLoginRequired, "%v", args)
		require.Contains(t, res.err.Error(), "adminctl login")
	}
	require.Zero(t, f.api.Hits(http.MethodGet, admin.BasePath+"/users"))
	require.Zero(t, f.api.Hits(http.MethodGet, admin.BasePath+"/registrations"))
}

func TestUsers(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "", "users", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "EMAIL")
	require.Contains(t, res.out, "learner@b.com")
	require.Contains(t, res.out, "MANUAL")

	res = f.run(t, "", "users", "create", "--email", "new@b.com", "--password", "pw", "--first-name", "Nia", "--transmission", "automatic", "-o", "json")
	require.NoError(t, res.err)
	var created admin.User
	require.NoError(t, json.Unmarshal([]byte(res.out), &created))
	require.NotZero(t, created.ID)
	require.Equal(t, admin.TransmissionAutomatic, created.Transmission)

	id := jsonID(created.ID)
	res = f.run(t, "", "users", "update", id, "--last-name", "Okafor", "-o", "json")
	require.NoError(t, res.err)
	var updated admin.User
	require.NoError(t, json.Unmarshal([]byte(res.out), &updated))
	require.Equal(t, "Nia", updated.FirstName)
	require.Equal(t, "Okafor", updated.LastName)

	res = f.run(t, "", "users", "update", id)
	require.EqualError(t, res.err, "nothing to update")

	res = f.run(t, "", "users", "delete", id)
	require.ErrorContains(t, res.err, "without --yes")

	res = f.run(t, "", "users", "delete", id, "--yes")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Deleted user "+id)

	res = f.run(t, "", "users", "get", id)
	require.EqualError(t, res.err, "user "+id+" not found")

	res = f.run(t, "", "users", "get", "abc")
	require.EqualError(t, res.err, `invalid id "abc"`)
}

func TestUsers_CreateRejectsBadEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "", "users", "create", "--email", "nope", "--password", "pw")
	require.ErrorIs(t, res.err, admin.ErrInvalidUser)
	require.Zero(t, f.api.Hits(http.MethodPost, admin.BasePath+"/users"))
}

func TestSessions(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	id := jsonID(f.session.ID)

	res := f.run(t, "", "sessions", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "2026-05-01")
	require.Contains(t, res.out, "Bay 1")

	res = f.run(t, "", "sessions", "update", id, "--location", "Bay 4", "--difficulty", "hard", "-o", "json")
	require.NoError(t, res.err)
	var updated admin.TrainingSession
	require.NoError(t, json.Unmarshal([]byte(res.out), &updated))
	require.Equal(t, "Bay 4", updated.Location)
	require.Equal(t, admin.DifficultyHard, updated.Scenario.Difficulty)
	require.Equal(t, "City", updated.Scenario.Name)

	res = f.run(t, "", "sessions", "update", id, "--date", "01/05/2026")
	require.Error(t, res.err)

	res = f.run(t, "", "sessions", "get", id, "-o", "yaml")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "location: Bay 4")
	require.Contains(t, res.out, "difficulty: HARD")
}

func TestRegistrationsAndStatus(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	id := jsonID(f.reg.ID)

	res := f.run(t, "", "registrations", "list")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "learner@b.com")

	res = f.run(t, "", "registrations", "update", id, "--score", "120")
	require.ErrorContains(t, res.err, "between 0 and 100")

	res = f.run(t, "", "registrations", "update", id, "--completed", "--score", "80", "--feedback", "Good mirror checks")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "yes")

	res = f.run(t, "", "status", "-o", "json")
	require.NoError(t, res.err)
	var o admin.Overview
	require.NoError(t, json.Unmarshal([]byte(res.out), &o))
	require.Equal(t, 2, o.TotalUsers)
	require.Equal(t, 1, o.TotalSessions)
	require.Equal(t, 1, o.CompletedRegistrations)
	require.Equal(t, 1, o.PaidRegistrations)
	require.InDelta(t, 80.0, o.AverageScore, 0.001)
	require.Equal(t, 1, o.SessionsByDifficulty[admin.DifficultyEasy])

	res = f.run(t, "", "status")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Completion rate")
	require.Contains(t, res.out, "100%")

	res = f.run(t, "", "registrations", "delete", id, "-y")
	require.NoError(t, res.err)
}

func TestUnknownOutputFormat(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "", "users", "list", "-o", "xml")
	require.EqualError(t, res.err, `unknown output format "xml"`)
}

func jsonID(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}
