package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/marquee/pkg/adapters/memory"
	marqueehttp "github.com/aretw0/marquee/pkg/adapters/http"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func click(target domain.ElementID, duration domain.Millis) domain.Animation {
	return domain.Animation{Target: target, Trigger: domain.TriggerOnClick, Effect: "fade", Duration: duration}
}

func testDeck() *memory.Deck {
	return memory.NewDeck(
		domain.Slide{
			ID:       "good",
			Title:    "Good",
			Elements: []domain.Element{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Animations: []domain.Animation{
				click("a", 400),
				{Target: "b", Trigger: domain.TriggerWithPrevious, Effect: "fade", Delay: 100, Duration: 200},
				click("c", 300),
			},
		},
		domain.Slide{
			ID:         "broken",
			Elements:   []domain.Element{{ID: "x"}},
			Animations: []domain.Animation{{Target: "x", Trigger: domain.TriggerAfterPrevious, Duration: 100}},
		},
	)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub(), marqueehttp.WithTopic("talk"))

	w := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(t, h, "/info")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "talk", info["topic"])
	assert.Equal(t, float64(2), info["slides"])
	assert.NotEmpty(t, info["version"])
}

func TestListSlides(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub())

	w := get(t, h, "/slides")
	require.Equal(t, http.StatusOK, w.Code)

	var slides []marqueehttp.SlideSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slides))
	require.Len(t, slides, 2)
	assert.Equal(t, marqueehttp.SlideSummary{Index: 0, ID: "good", Title: "Good", Animations: 3, Steps: 2}, slides[0])
	assert.Contains(t, slides[1].Error, "no preceding")
}

func TestSlideSteps(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub())

	w := get(t, h, "/slides/0/steps")
	require.Equal(t, http.StatusOK, w.Code)
	var steps []domain.AnimationStep
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &steps))
	require.Len(t, steps, 2)
	assert.Equal(t, []domain.ElementID{"a", "b"}, steps[0].Targets())
	assert.Equal(t, domain.Millis(100), steps[0].ResolvedDelay(1))

	w = get(t, h, "/slides/1/steps")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp marqueehttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, marqueehttp.ErrorDetail{Slide: 1, Animation: 0, Target: "x", Message: domain.ErrOrphanChain.Error()}, resp.Details[0])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/slides/9/steps").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/slides/one/steps").Code)
}

func TestSlidePreview(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub())

	w := get(t, h, "/slides/0/preview")
	require.Equal(t, http.StatusOK, w.Code)
	var sched domain.PreviewSchedule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
	assert.Equal(t, []domain.Millis{0, 400}, sched.FlashTimes)
	assert.Equal(t, domain.Millis(700), sched.End)
	delay, ok := sched.DelayOf("c")
	require.True(t, ok)
	assert.Equal(t, domain.Millis(400), delay)

	assert.Equal(t, http.StatusOK, get(t, h, "/slides/0/preview?mode=one").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/slides/0/preview?mode=loop").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/slides/1/preview").Code)
}

// readEvent reads one SSE event.
func readEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if data != "" || event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func stream(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func TestChannel_Bridge(t *testing.T) {
	hub := memory.NewHub()
	srv := httptest.NewServer(marqueehttp.NewHandler(testDeck(), hub))
	defer srv.Close()

	presenter := channel.NewPeer(hub)
	defer presenter.Close()
	fromBrowser, err := presenter.Subscribe(context.Background())
	require.NoError(t, err)

	events := stream(t, srv.URL+"/channel/events?peer=browser")
	event, id := readEvent(t, events)
	assert.Equal(t, "ping", event)
	assert.Equal(t, "browser", id)

	// Presenter to browser.
	require.NoError(t, presenter.Send(context.Background(), domain.NavigateMessage(domain.PlaybackState{SlideIndex: 1, ActiveStep: 2})))
	_, data := readEvent(t, events)
	assert.JSONEq(t, `{"type":"navigate","slideIndex":1,"activeStep":2}`, data)

	// Browser to presenter.
	resp, err := http.Post(srv.URL+"/channel/messages?peer=browser", "application/json", strings.NewReader(`{"type":"sync-request"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case msg := <-fromBrowser:
		assert.Equal(t, domain.SyncRequestMessage(), msg)
	case <-time.After(2 * time.Second):
		t.Fatal("presenter did not receive the browser message")
	}
}

func TestChannel_RejectsUnknownMessages(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/channel/messages", strings.NewReader(`{"type":"teleport"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeckEvents_Reload(t *testing.T) {
	deck := testDeck()
	srv := httptest.NewServer(marqueehttp.NewHandler(deck, memory.NewHub()))
	defer srv.Close()

	events := stream(t, srv.URL+"/events")
	event, _ := readEvent(t, events)
	require.Equal(t, "ping", event)

	require.NoError(t, deck.SetAnimations(1, nil))
	event, data := readEvent(t, events)
	assert.Equal(t, "reload", event)
	assert.Equal(t, "broken", data)
}

func TestControl(t *testing.T) {
	good, err := testDeck().Slide(0)
	require.NoError(t, err)
	deck := memory.NewDeck(good)
	session := runner.NewSession(deck)
	require.NoError(t, session.Start(context.Background(), 0))
	defer session.Exit(context.Background())

	h := marqueehttp.NewHandler(deck, memory.NewHub(), marqueehttp.WithController(session))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`{"cmd":"advance"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var frame domain.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &frame))
	assert.Equal(t, domain.PlaybackState{SlideIndex: 0, ActiveStep: 1}, frame.State)
	assert.Equal(t, domain.ModePresenting, frame.Mode)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`dance`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, h, "/state")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_step":1`)
}

func TestOptionalRoutes(t *testing.T) {
	h := marqueehttp.NewHandler(testDeck(), memory.NewHub())
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/state").Code)

	h = marqueehttp.NewHandler(testDeck(), memory.NewHub(), marqueehttp.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "metrics")
	})))
	w := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "metrics", w.Body.String())
}

func TestAudiencePage(t *testing.T) {
	w := get(t, marqueehttp.NewHandler(testDeck(), memory.NewHub()), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EventSource")
}
