package autoindex

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/testutil"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
	shown  Maybe[Group]
}

func (s *recordingSink) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "clear")
	s.shown = None[Group]()
	return nil
}

func (s *recordingSink) Attach(_ context.Context, g Maybe[Group]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "attach")
	s.shown = g
	return nil
}

func (s *recordingSink) snapshot() ([]string, Maybe[Group]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...), s.shown
}

func docsSource() *testutil.FakeSource {
	return testutil.NewFakeSource().
		Page(5, "docs").
		Children(5,
			testutil.Node(10, "Intro", "docs/intro", 100),
			testutil.Node(11, "Guide", "docs/guide", 0),
		)
}

func TestWidget_Render(t *testing.T) {
	src := docsSource()
	sink := &recordingSink{}
	var observed []Result
	w := NewWidget("docs", src, sink,
		WithLocation("/en/docs"),
		WithObserver(func(_ context.Context, r Result) { observed = append(observed, r) }),
	)

	res, err := w.Connect(context.Background())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Path != "docs" || res.RootID != 5 || res.Depth != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2", res.Rows)
	}
	// lookup + root level + one per child.
	if res.Fetches != 4 {
		t.Errorf("fetches = %d, want 4 (%v)", res.Fetches, src.Calls())
	}
	events, shown := sink.snapshot()
	if !reflect.DeepEqual(events, []string{"clear", "attach"}) {
		t.Errorf("events = %v", events)
	}
	if !shown.IsSome() {
		t.Error("nothing attached")
	}
	if len(observed) != 1 || observed[0].Status() != "ok" {
		t.Errorf("observed = %+v", observed)
	}
	if w.Busy() {
		t.Error("widget still busy after render")
	}
}

func TestWidget_LookupNotFoundLeavesSinkCleared(t *testing.T) {
	src := testutil.NewFakeSource().Page(5, "docs/other")
	sink := &recordingSink{}
	w := NewWidget("w", src, sink, WithAttributes(Attributes{Path: "docs"}))

	res, err := w.Render(context.Background())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if res.Status() != "not_found" {
		t.Errorf("status = %q", res.Status())
	}
	events, shown := sink.snapshot()
	if !reflect.DeepEqual(events, []string{"clear"}) || shown.IsSome() {
		t.Errorf("events = %v shown = %v", events, shown.IsSome())
	}
	// Only the lookup was issued.
	if got := src.Calls(); !reflect.DeepEqual(got, []string{"path:docs"}) {
		t.Errorf("calls = %v", got)
	}
}

func TestWidget_FailureReleasesGuard(t *testing.T) {
	src := docsSource()
	src.Fail["path:docs"] = errors.New("dial tcp: refused")
	sink := &recordingSink{}
	w := NewWidget("w", src, sink, WithLocation("docs"))

	if _, err := w.Render(context.Background()); !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if _, shown := sink.snapshot(); shown.IsSome() {
		t.Error("sink should be cleared after failure")
	}
	if w.Busy() {
		t.Fatal("guard not released after failure")
	}

	delete(src.Fail, "path:docs")
	res, err := w.Render(context.Background())
	if err != nil || res.Skipped {
		t.Fatalf("second render = %+v, %v", res, err)
	}
	if _, shown := sink.snapshot(); !shown.IsSome() {
		t.Error("second render attached nothing")
	}
}

func TestWidget_DeepFailureAttachesNothing(t *testing.T) {
	src := docsSource()
	src.Fail["parent:11"] = errors.New("502")
	sink := &recordingSink{}
	w := NewWidget("w", src, sink, WithLocation("docs"))

	_, err := w.Render(context.Background())
	if !errors.Is(err, apperr.ErrRecursionAborted) {
		t.Fatalf("err = %v, want ErrRecursionAborted", err)
	}
	events, _ := sink.snapshot()
	if !reflect.DeepEqual(events, []string{"clear"}) {
		t.Errorf("events = %v", events)
	}
}

func TestWidget_ReentrantRenderIsDropped(t *testing.T) {
	src := docsSource()
	src.Entered = make(chan struct{}, 16)
	src.Gate = make(chan struct{})
	sink := &recordingSink{}
	var mu sync.Mutex
	observed := 0
	w := NewWidget("w", src, sink, WithLocation("docs"), WithObserver(func(context.Context, Result) {
		mu.Lock()
		observed++
		mu.Unlock()
	}))

	done := make(chan error, 1)
	go func() {
		_, err := w.Render(context.Background())
		done <- err
	}()

	select {
	case <-src.Entered:
	case <-time.After(time.Second):
		t.Fatal("first render never reached the source")
	}
	if !w.Busy() {
		t.Fatal("widget should be busy")
	}

	res, err := w.Render(context.Background())
	if err != nil || !res.Skipped {
		t.Fatalf("overlapping render = %+v, %v; want skipped", res, err)
	}
	if _, err := w.SetAttributes(context.Background(), Attributes{Path: "docs", Depth: 1}); err != nil {
		t.Fatalf("SetAttributes while busy: %v", err)
	}

	close(src.Gate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first render: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first render did not finish")
	}

	events, _ := sink.snapshot()
	if !reflect.DeepEqual(events, []string{"clear", "attach"}) {
		t.Errorf("events = %v, want a single render", events)
	}
	mu.Lock()
	defer mu.Unlock()
	if observed != 1 {
		t.Errorf("observed = %d, want 1", observed)
	}
}

func TestWidget_SetAttributesRerenders(t *testing.T) {
	src := docsSource().
		Page(7, "handbook").
		Children(7, testutil.Node(70, "Policies", "handbook/policies", 0))
	sink := &recordingSink{}
	w := NewWidget("w", src, sink, WithLocation("docs"))

	res, err := w.SetAttributes(context.Background(), Attributes{Path: "/fr/handbook", Depth: 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "handbook" || res.RootID != 7 || res.Depth != DefaultDepth {
		t.Errorf("result = %+v", res)
	}
	_, shown := sink.snapshot()
	g, ok := shown.Get()
	if !ok || g.Blocks[0].Title != "Policies" {
		t.Errorf("shown = %+v", g)
	}
}

func TestWidget_EmptyTreeAttachesNone(t *testing.T) {
	src := testutil.NewFakeSource().Page(5, "docs")
	sink := &recordingSink{}
	w := NewWidget("w", src, sink, WithLocation("docs"))

	res, err := w.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 0 || res.Output.IsSome() {
		t.Errorf("result = %+v", res)
	}
	events, shown := sink.snapshot()
	if !reflect.DeepEqual(events, []string{"clear", "attach"}) || shown.IsSome() {
		t.Errorf("events = %v shown = %v", events, shown.IsSome())
	}
}

func TestResultStatus(t *testing.T) {
	cases := []struct {
		res  Result
		want string
	}{
		{Result{}, "ok"},
		{Result{Skipped: true}, "skipped"},
		{Result{Err: apperr.ErrNotFound}, "not_found"},
		{Result{Err: apperr.ErrTransport}, "failed"},
	}
	for _, c := range cases {
		if got := c.res.Status(); got != c.want {
			t.Errorf("Status(%+v) = %q, want %q", c.res, got, c.want)
		}
	}
}
