package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
	tu "github.com/desertthunder/mibands/internal/testing"
)

type harness struct {
	r      *Runner
	db     *sql.DB
	out    *bytes.Buffer
	config string
}

func newHarness(t *testing.T, opts RunnerOpts) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	if opts.DB == nil {
		opts.DB = tu.NewTestDB(t)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	opts.Output = out
	return &harness{
		r:      NewRunner(opts),
		db:     opts.DB,
		out:    out,
		config: filepath.Join(t.TempDir(), "missing.toml"),
	}
}

// run executes the CLI with args and returns what it wrote.
func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	app := newApp(h.r)
	app.Writer, app.ErrWriter = io.Discard, io.Discard
	err := app.Run(context.Background(), append([]string{"mibands", "--config", h.config}, args...))
	return h.out.String(), err
}

func seedBands(t *testing.T, db *sql.DB) {
	t.Helper()
	tu.CreateBand(t, db, models.BandInput{
		Name: "Lake Effect", City: "Marquette", Region: "UP", Genres: []string{"Shoegaze"},
		Links: links.Set{Website: "lakeeffect.example", Instagram: "@lakefx"},
	}, "")
	tu.CreateBand(t, db, models.BandInput{
		Name: "Motor City Static", City: "Detroit", Region: "Detroit Metro", Genres: []string{"Garage Rock"},
	}, "")
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("With All Dependencies Provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}
			previews := &tu.StubPreviews{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
				Previews:   previews,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.previewSource(nil) != previews {
				t.Error("expected injected previews to win")
			}
		})

		t.Run("With Nil Options Uses Defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("SetLogger", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			logger := shared.NewLogger(io.Discard)
			runner.SetLogger(logger)
			if runner.logger != logger {
				t.Error("expected logger to be replaced")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("Writes Formatted JSON Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("Writes Compact JSON Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("Handles Marshal Error with Non-serializable Data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("Handles Write Failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("Handles Newline Write Failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("Writes Plain Text Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("Handles Write Failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"serve", "setup", "bands", "links", "previews", "users", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %+v", i, want[i], cmd)
			}
		}
	})

	t.Run("before", func(t *testing.T) {
		t.Run("Loads the Config File", func(t *testing.T) {
			h := newHarness(t, RunnerOpts{})
			h.config = filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, h.config, "[listing]\npage_size = 10\nmax_page_size = 100\n")

			if _, err := h.run("links", "normalize", "example.com"); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if h.r.config.Listing.PageSize != 10 {
				t.Errorf("expected page size from file, got %d", h.r.config.Listing.PageSize)
			}
			if h.r.config.Server.Port != 3000 {
				t.Errorf("expected defaults for missing keys, got port %d", h.r.config.Server.Port)
			}
		})

		t.Run("Rejects a Broken Config File", func(t *testing.T) {
			h := newHarness(t, RunnerOpts{})
			h.config = filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, h.config, "[listing\n")

			if _, err := h.run("links", "normalize", "example.com"); err == nil {
				t.Error("expected parse error")
			}
		})

		t.Run("Rejects an Unknown Log Level", func(t *testing.T) {
			h := newHarness(t, RunnerOpts{})
			if _, err := h.run("--log-level", "loud", "links", "normalize", "example.com"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestBandsCommands(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		seedBands(t, h.db)

		out, err := h.run("bands", "list")
		if err != nil {
			t.Fatalf("bands list failed: %v", err)
		}
		for _, want := range []string{"Bands (2 of 2)", "Lake Effect", "Marquette, UP", "motor-city-static"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}

		out, err = h.run("bands", "list", "--region", "up", "--json")
		if err != nil {
			t.Fatalf("bands list --json failed: %v", err)
		}
		var bands []models.Band
		if err := json.Unmarshal([]byte(out), &bands); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(bands) != 1 || bands[0].Name != "Lake Effect" {
			t.Errorf("unexpected bands %+v", bands)
		}

		out, _ = h.run("bands", "list", "--query", "garage", "--limit", "1")
		if !strings.Contains(out, "Motor City Static") || strings.Contains(out, "Lake Effect") {
			t.Errorf("expected query filter, got:\n%s", out)
		}

		if _, err := h.run("bands", "list", "--region", "Ohio"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Show", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		seedBands(t, h.db)

		out, err := h.run("bands", "show", "lake-effect")
		if err != nil {
			t.Fatalf("bands show failed: %v", err)
		}
		for _, want := range []string{"Lake Effect", "Region:    UP", "Website:   https://lakeeffect.example/", "Instagram: @lakefx"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}

		if _, err := h.run("bands", "show", "nope"); !errors.Is(err, shared.ErrBandNotFound) {
			t.Errorf("expected ErrBandNotFound, got %v", err)
		}
		if _, err := h.run("bands", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Export", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		seedBands(t, h.db)
		dir := filepath.Join(t.TempDir(), "export")

		out, err := h.run("bands", "export", "--format", "csv", "--output", dir, "--by-region")
		if err != nil {
			t.Fatalf("bands export failed: %v", err)
		}
		if !strings.Contains(out, "Exported 2 bands") {
			t.Errorf("unexpected output:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "up.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "detroit-metro.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		if _, err := h.run("bands", "export", "--format", "xml", "--output", dir); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Import", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		owner := tu.CreateUser(t, h.db, "owner@example.com", false)
		path := filepath.Join(t.TempDir(), "bands.csv")
		tu.MustWriteFile(t, path, "name,city,region,genres,instagram\nDune Buggy,Grand Haven,West MI,\"Surf, Garage\",@dunebuggy\n,,,,\nNowhere,,Ohio,,\n")

		out, err := h.run("bands", "import", "--dry-run", path)
		if err != nil {
			t.Fatalf("dry run failed: %v", err)
		}
		if !strings.Contains(out, "Dry run: 1 valid, 0 skipped, 1 invalid of 2 rows") {
			t.Errorf("unexpected dry run output:\n%s", out)
		}

		out, err = h.run("bands", "import", "--owner", "owner@example.com", path)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(out, "Imported 1 bands") || !strings.Contains(out, `row 2 "Nowhere": invalid`) {
			t.Errorf("unexpected output:\n%s", out)
		}

		b, err := repositories.NewBandRepository(h.db).GetBySlug(context.Background(), "dune-buggy")
		if err != nil {
			t.Fatalf("imported band missing: %v", err)
		}
		if b.OwnerID != owner.ID || strings.Join(b.Genres, "|") != "Surf|Garage" {
			t.Errorf("unexpected band %+v", b)
		}

		out, _ = h.run("bands", "import", "--skip-existing", path)
		if !strings.Contains(out, "Imported 0 bands (1 skipped") {
			t.Errorf("expected existing slug to be skipped, got:\n%s", out)
		}

		if _, err := h.run("bands", "import", "--owner", "ghost@example.com", path); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := h.run("bands", "import", filepath.Join(t.TempDir(), "bands.xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := h.run("bands", "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestLinksCommands(t *testing.T) {
	h := newHarness(t, RunnerOpts{})

	tc := []struct {
		args []string
		want string
	}{
		{[]string{"links", "normalize", "Example.COM"}, "https://example.com/\n"},
		{[]string{"links", "instagram", "@lakefx"}, "https://instagram.com/lakefx\t@lakefx\n"},
		{[]string{"links", "embed", "https://open.spotify.com/artist/abc123"}, "spotify\thttps://open.spotify.com/embed/artist/abc123\n"},
		{[]string{"links", "embed", "https://youtu.be/xyz"}, "youtube\thttps://www.youtube.com/embed/xyz\n"},
	}
	for _, c := range tc {
		t.Run(strings.Join(c.args[1:], " "), func(t *testing.T) {
			out, err := h.run(c.args...)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if out != c.want {
				t.Errorf("expected %q, got %q", c.want, out)
			}
		})
	}

	t.Run("Errors", func(t *testing.T) {
		if _, err := h.run("links", "embed", "https://example.com/"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := h.run("links", "normalize", "http://"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := h.run("links", "instagram"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Preview", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, `<html><head><title>Lake Effect</title><meta name="description" content="Shoegaze from Marquette"></head></html>`)
		}))
		defer srv.Close()

		out, err := h.run("links", "preview", srv.URL)
		if err != nil {
			t.Fatalf("preview failed: %v", err)
		}
		if !strings.Contains(out, "Title:       Lake Effect") || !strings.Contains(out, "Shoegaze from Marquette") {
			t.Errorf("unexpected preview output:\n%s", out)
		}

		out, _ = h.run("links", "preview", srv.URL+"/missing")
		if !strings.Contains(out, "No preview for") {
			t.Errorf("expected no preview, got:\n%s", out)
		}

		out, _ = h.run("links", "preview", "--json", srv.URL+"/missing")
		if !strings.Contains(out, `"preview": null`) {
			t.Errorf("expected null preview, got:\n%s", out)
		}
	})
}

func TestPreviewsCommands(t *testing.T) {
	t.Run("Warm", func(t *testing.T) {
		stub := &tu.StubPreviews{Preview: &models.LinkPreview{Title: "Lake Effect"}}
		h := newHarness(t, RunnerOpts{Previews: stub})
		seedBands(t, h.db)

		out, err := h.run("previews", "warm", "--rate", "1000", "--workers", "2")
		if err != nil {
			t.Fatalf("warm failed: %v", err)
		}
		if !strings.Contains(out, "Warmed 1 of 1 websites (2 bands, 0 without a preview)") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if stub.Calls() != 1 || stub.URLs[0] != "https://lakeeffect.example/" {
			t.Errorf("unexpected fetches %v", stub.URLs)
		}

		out, err = h.run("previews", "warm", "--region", "Detroit Metro", "--json")
		if err != nil {
			t.Fatalf("warm --json failed: %v", err)
		}
		if !strings.Contains(out, `"websites": 0`) {
			t.Errorf("expected no websites in Detroit Metro, got:\n%s", out)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		cache := repositories.NewPreviewRepository(h.db)
		if err := cache.Put(context.Background(), "https://lakeeffect.example/", &models.LinkPreview{Title: "x"}, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		out, err := h.run("previews", "purge")
		if err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if !strings.Contains(out, "Removed 1 cached previews") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if n, _ := cache.Count(context.Background()); n != 0 {
			t.Errorf("expected empty cache, got %d", n)
		}
	})
}

func TestUsersCommands(t *testing.T) {
	t.Run("Add with Flag", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		out, err := h.run("users", "add", "--admin", "--password", "longenough1", "Admin@Example.com")
		if err != nil {
			t.Fatalf("users add failed: %v", err)
		}
		if !strings.Contains(out, "Created admin admin@example.com") {
			t.Errorf("unexpected output:\n%s", out)
		}

		if _, err := h.run("users", "add", "--password", "longenough1", "admin@example.com"); !errors.Is(err, shared.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
		if _, err := h.run("users", "add", "--password", "short", "other@example.com"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Add Reads Password from Input", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{Input: strings.NewReader("piped-password\n")})
		if _, err := h.run("users", "add", "piped@example.com"); err != nil {
			t.Fatalf("users add failed: %v", err)
		}

		u, err := repositories.NewUserRepository(h.db).GetByEmail(context.Background(), "piped@example.com")
		if err != nil {
			t.Fatalf("user missing: %v", err)
		}
		if u.IsAdmin {
			t.Error("expected a regular user")
		}
	})

	t.Run("Add with Empty Input", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{Input: strings.NewReader("")})
		if _, err := h.run("users", "add", "empty@example.com"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		tu.CreateUser(t, h.db, "b@example.com", true)
		tu.CreateUser(t, h.db, "a@example.com", false)

		out, err := h.run("users", "list")
		if err != nil {
			t.Fatalf("users list failed: %v", err)
		}
		if !strings.Contains(out, "Users (2)") || strings.Index(out, "a@example.com") > strings.Index(out, "b@example.com") {
			t.Errorf("expected users ordered by email, got:\n%s", out)
		}

		out, _ = h.run("users", "list", "--json")
		var users []models.User
		if err := json.Unmarshal([]byte(out), &users); err != nil || len(users) != 2 || !users[1].IsAdmin {
			t.Errorf("unexpected JSON %s (%v)", out, err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Status and Rollback", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})

		out, err := h.run("setup", "status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out, "0000  applied") || !strings.Contains(out, "0004  applied") {
			t.Errorf("unexpected status:\n%s", out)
		}

		out, err = h.run("setup", "rollback")
		if err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(out, "4 migrations remain applied") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("Config", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if _, err := h.run("setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, h.config)
		if _, err := h.run("setup", "config"); err == nil {
			t.Error("expected error when the file exists")
		}
	})

	t.Run("Database", func(t *testing.T) {
		dir := t.TempDir()
		h := &harness{out: &bytes.Buffer{}, config: filepath.Join(dir, "config.toml")}
		h.r = NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: h.out})
		tu.MustWriteFile(t, h.config, "[database]\npath = \""+filepath.ToSlash(filepath.Join(dir, "test.db"))+"\"\n")

		out, err := h.run("setup", "database")
		if err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if !strings.Contains(out, "5 migrations applied") {
			t.Errorf("unexpected output:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "test.db"))
	})
}

func TestServe(t *testing.T) {
	t.Run("Requires a Valid Config", func(t *testing.T) {
		h := newHarness(t, RunnerOpts{})
		if _, err := h.run("serve"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Serves until Cancelled", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Auth.SessionSecret = "test-secret-that-is-long-enough"
		h := newHarness(t, RunnerOpts{Config: config, Previews: &tu.StubPreviews{}})

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen failed: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		errs := make(chan error, 1)
		go func() { errs <- h.r.serve(ctx, ln, false) }()

		var resp *http.Response
		for range 50 {
			if resp, err = http.Get("http://" + ln.Addr().String() + "/healthz"); err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			t.Fatalf("server never answered: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}

		cancel()
		select {
		case err := <-errs:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
}
