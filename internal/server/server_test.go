package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storyloom/storyloom/internal/genai"
	"github.com/storyloom/storyloom/internal/home"
	"github.com/storyloom/storyloom/internal/pipeline"
	"github.com/storyloom/storyloom/internal/server/endpoints"
	"github.com/storyloom/storyloom/internal/store"
)

const testScript = `[Summary]
짧은 요약.

[Scene 1]
첫 번째 장면.

[Scene 2]
두 번째 장면.`

const testCharacters = `[{"name": "Mina", "description": "짧은 머리"}]`

func newTestServer(t *testing.T, gen genai.Generator) (*httptest.Server, *store.Store, *home.Dir) {
	t.Helper()

	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	st, err := store.Open(dir.DatabasePath())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := pipeline.NewRunner(st, gen, pipeline.Config{}, logger)

	srv, err := New(Config{
		Store:  st,
		Runner: runner,
		Home:   dir,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st, dir
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndReady(t *testing.T) {
	ts, _, _ := newTestServer(t, &genai.MockGenerator{})

	var health endpoints.HealthResponse
	if code := getJSON(t, ts.URL+"/health", &health); code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", code)
	}
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}

	var ready endpoints.HealthResponse
	if code := getJSON(t, ts.URL+"/ready", &ready); code != http.StatusOK {
		t.Errorf("GET /ready = %d, want 200", code)
	}
	if ready.Store != "ok" {
		t.Errorf("ready store = %q, want ok", ready.Store)
	}

	var status endpoints.StatusResponse
	if code := getJSON(t, ts.URL+"/status", &status); code != http.StatusOK {
		t.Errorf("GET /status = %d, want 200", code)
	}
	if status.Server != "running" {
		t.Errorf("status server = %q, want running", status.Server)
	}
}

func TestSubmitAndPollWork(t *testing.T) {
	gen := &genai.MockGenerator{TextResponses: []string{testScript, testCharacters}}
	ts, _, _ := newTestServer(t, gen)

	body := `{"topic": "비 오는 날", "character_count": 1, "scene_count": 2}`
	resp, err := http.Post(ts.URL+"/api/works", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/works: %v", err)
	}
	var submitted endpoints.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /api/works = %d, want 202", resp.StatusCode)
	}
	if submitted.ID == "" || submitted.Status != store.StatusPending {
		t.Fatalf("submit response = %+v", submitted)
	}

	// Poll until the pipeline completes.
	var detail endpoints.WorkDetail
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if code := getJSON(t, ts.URL+"/api/works/"+submitted.ID, &detail); code != http.StatusOK {
			t.Fatalf("GET /api/works/{id} = %d", code)
		}
		if detail.Status == store.StatusComplete {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if detail.Status != store.StatusComplete {
		t.Fatalf("work never completed: %+v", detail)
	}
	if len(detail.Scenes) != 2 {
		t.Errorf("scenes = %d, want 2", len(detail.Scenes))
	}
	if len(detail.Characters) != 1 {
		t.Errorf("characters = %d, want 1", len(detail.Characters))
	}

	// The new work shows up in the listing.
	var list endpoints.WorkListResponse
	if code := getJSON(t, ts.URL+"/api/works", &list); code != http.StatusOK {
		t.Fatalf("GET /api/works = %d", code)
	}
	if list.Count != 1 || list.Works[0].ID != submitted.ID {
		t.Errorf("listing = %+v, want the submitted work", list)
	}
}

func TestSubmitValidation(t *testing.T) {
	ts, _, _ := newTestServer(t, &genai.MockGenerator{})

	resp, err := http.Post(ts.URL+"/api/works", "application/json", strings.NewReader(`{"topic": ""}`))
	if err != nil {
		t.Fatalf("POST /api/works: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST with empty topic = %d, want 400", resp.StatusCode)
	}
}

func TestGetUnknownWork(t *testing.T) {
	ts, _, _ := newTestServer(t, &genai.MockGenerator{})

	if code := getJSON(t, ts.URL+"/api/works/nope", nil); code != http.StatusNotFound {
		t.Errorf("GET unknown work = %d, want 404", code)
	}
}

func TestDeleteWork(t *testing.T) {
	ts, st, _ := newTestServer(t, &genai.MockGenerator{})

	work, err := st.CreateWork(t.Context(), "to delete")
	if err != nil {
		t.Fatalf("CreateWork() error = %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/works/"+work.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE = %d, want 200", resp.StatusCode)
	}

	if code := getJSON(t, ts.URL+"/api/works/"+work.ID, nil); code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", code)
	}
}

func TestImageServing(t *testing.T) {
	ts, _, dir := newTestServer(t, &genai.MockGenerator{})

	data := testPNG(t)
	ref, err := dir.WriteImage(home.ImageKindCover, "cover.png", data)
	if err != nil {
		t.Fatalf("WriteImage() error = %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/images/covers/" + ref)
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET image = %d, want 200", resp.StatusCode)
	}
	if !bytes.Equal(got, data) {
		t.Error("served image bytes differ from stored bytes")
	}

	if code := getJSON(t, ts.URL+"/api/images/other/"+ref, nil); code != http.StatusBadRequest {
		t.Errorf("GET unknown kind = %d, want 400", code)
	}
	if code := getJSON(t, ts.URL+"/api/images/covers/missing.png", nil); code != http.StatusNotFound {
		t.Errorf("GET missing image = %d, want 404", code)
	}
}

func TestSwaggerSpecServed(t *testing.T) {
	ts, _, _ := newTestServer(t, &genai.MockGenerator{})

	resp, err := http.Get(ts.URL + "/swagger.json")
	if err != nil {
		t.Fatalf("GET /swagger.json: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /swagger.json = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Storyloom API") {
		t.Error("spec missing API title")
	}
}

func TestExportPDF(t *testing.T) {
	ts, st, dir := newTestServer(t, &genai.MockGenerator{})

	work, err := st.CreateWork(t.Context(), "export me")
	if err != nil {
		t.Fatalf("CreateWork() error = %v", err)
	}
	ref, err := dir.WriteImage(home.ImageKindCover, "cover.png", testPNG(t))
	if err != nil {
		t.Fatalf("WriteImage() error = %v", err)
	}
	if err := st.UpdateWork(t.Context(), work.ID, store.WorkUpdate{CoverImage: store.StringPtr(ref)}); err != nil {
		t.Fatalf("UpdateWork() error = %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/works/" + work.ID + "/export/pdf")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET export = %d, want 200: %s", resp.StatusCode, body)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Error("export response is not a PDF")
	}
}

func TestExportWithNoImages(t *testing.T) {
	ts, st, _ := newTestServer(t, &genai.MockGenerator{})

	work, err := st.CreateWork(t.Context(), "bare")
	if err != nil {
		t.Fatalf("CreateWork() error = %v", err)
	}

	if code := getJSON(t, ts.URL+"/api/works/"+work.ID+"/export/pdf", nil); code != http.StatusBadRequest {
		t.Errorf("GET export without images = %d, want 400", code)
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}
