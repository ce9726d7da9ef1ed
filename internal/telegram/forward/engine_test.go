package forward

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"forward_bot/internal/telegram/chatref"

	"github.com/go-telegram/bot"
)

var (
	testSource = chatref.Parse("-1001111111111")
	testTarget = chatref.Parse("@target")
)

// newTestEngine 返回带 sleep 记录器的引擎，测试不真实等待
func newTestEngine(copy CopyFunc) (*Engine, *[]time.Duration) {
	e := NewEngine(copy)
	sleeps := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return e, sleeps
}

func testRequest(startID, endID int64) Request {
	return Request{
		Source:    testSource,
		Target:    testTarget,
		StartID:   startID,
		EndID:     endID,
		BaseDelay: 900 * time.Millisecond,
		FailDelay: 1700 * time.Millisecond,
	}
}

func TestRunRejectsUnsetChats(t *testing.T) {
	tests := []struct {
		name   string
		source chatref.Ref
		target chatref.Ref
	}{
		{name: "source unset", source: chatref.Parse(""), target: testTarget},
		{name: "target unset", source: testSource, target: chatref.Parse("  ")},
		{name: "both unset", source: chatref.Parse(""), target: chatref.Parse("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			e, _ := newTestEngine(func(context.Context, chatref.Ref, chatref.Ref, int64) error {
				called = true
				return nil
			})

			req := testRequest(1, 3)
			req.Source, req.Target = tt.source, tt.target

			_, err := e.Run(context.Background(), req)
			if !errors.Is(err, ErrChatNotConfigured) {
				t.Fatalf("expected ErrChatNotConfigured, got %v", err)
			}
			if called {
				t.Fatal("copy must not be invoked for an unconfigured request")
			}
		})
	}
}

func TestRunNormalizesReversedRange(t *testing.T) {
	var forward, reversed []int64

	e1, _ := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		forward = append(forward, id)
		return nil
	})
	e2, _ := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		reversed = append(reversed, id)
		return nil
	})

	t1, err := e1.Run(context.Background(), testRequest(120, 135))
	if err != nil {
		t.Fatalf("forward run failed: %v", err)
	}
	t2, err := e2.Run(context.Background(), testRequest(135, 120))
	if err != nil {
		t.Fatalf("reversed run failed: %v", err)
	}

	if t1 != t2 {
		t.Fatalf("tallies differ: %+v vs %+v", t1, t2)
	}
	if len(forward) != 16 || len(reversed) != 16 {
		t.Fatalf("expected 16 ids each, got %d and %d", len(forward), len(reversed))
	}
	for i := range forward {
		if forward[i] != reversed[i] {
			t.Fatalf("id order differs at %d: %d vs %d", i, forward[i], reversed[i])
		}
		if forward[i] != int64(120+i) {
			t.Fatalf("expected id %d at position %d, got %d", 120+i, i, forward[i])
		}
	}
}

func TestRunTallyConservation(t *testing.T) {
	// 交替成功/瞬时失败/确定性拒绝，计数之和必须等于区间长度
	e, _ := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		switch id % 3 {
		case 0:
			return nil
		case 1:
			return errors.New("temporary network error")
		default:
			return fmt.Errorf("%w, chat not found", bot.ErrorBadRequest)
		}
	})

	tally, err := e.Run(context.Background(), testRequest(1, 30))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := tally.Succeeded + tally.Failed; got != 30 {
		t.Fatalf("expected 30 ids accounted for, got %d (%+v)", got, tally)
	}
	if tally.Succeeded != 10 || tally.Failed != 20 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestRunBoundedRetryOnFloodControl(t *testing.T) {
	// 始终命中流控：每个ID最多两次尝试（首次+一次重试），然后计为失败
	calls := map[int64]int{}
	e, _ := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		calls[id]++
		return &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 3}
	})

	tally, err := e.Run(context.Background(), testRequest(10, 14))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if tally.Succeeded != 0 || tally.Failed != 5 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	for id := int64(10); id <= 14; id++ {
		if calls[id] != 2 {
			t.Fatalf("expected exactly 2 attempts for id %d, got %d", id, calls[id])
		}
	}
}

func TestRunRetryRecoversAfterFloodControl(t *testing.T) {
	// 首次流控、重试成功的ID必须计入成功
	attempts := 0
	e, sleeps := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		attempts++
		if attempts == 1 {
			return &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 2}
		}
		return nil
	})

	tally, err := e.Run(context.Background(), testRequest(7, 7))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if tally.Succeeded != 1 || tally.Failed != 0 {
		t.Fatalf("unexpected tally: %+v", tally)
	}

	// 等待顺序：retry_after+1s 的流控等待，然后成功后的节流延迟
	want := []time.Duration{3 * time.Second, 900 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *sleeps)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, (*sleeps)[i])
		}
	}
}

func TestRunScenarioMixedOutcomes(t *testing.T) {
	// 120 成功；121 流控后重试失败；122 直接失败 => success=1 failed=2
	var attempted []int64
	e, sleeps := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		attempted = append(attempted, id)
		switch id {
		case 120:
			return nil
		case 121:
			if len(attempted) == 2 {
				return &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 2}
			}
			return errors.New("connection reset")
		default:
			return fmt.Errorf("%w, message to copy not found", bot.ErrorBadRequest)
		}
	})

	tally, err := e.Run(context.Background(), testRequest(120, 122))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if tally.Succeeded != 1 || tally.Failed != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}

	// 尝试序列严格递增，仅允许流控ID重复一次
	wantAttempts := []int64{120, 121, 121, 122}
	if len(attempted) != len(wantAttempts) {
		t.Fatalf("expected attempts %v, got %v", wantAttempts, attempted)
	}
	for i := range wantAttempts {
		if attempted[i] != wantAttempts[i] {
			t.Fatalf("expected attempts %v, got %v", wantAttempts, attempted)
		}
	}

	// 延迟调度：成功→base；流控→retry_after+1s；重试失败→fail；直接失败→fail
	wantSleeps := []time.Duration{
		900 * time.Millisecond,
		3 * time.Second,
		1700 * time.Millisecond,
		1700 * time.Millisecond,
	}
	if len(*sleeps) != len(wantSleeps) {
		t.Fatalf("expected sleeps %v, got %v", wantSleeps, *sleeps)
	}
	for i := range wantSleeps {
		if (*sleeps)[i] != wantSleeps[i] {
			t.Fatalf("expected sleeps %v, got %v", wantSleeps, *sleeps)
		}
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempted int
	e, _ := newTestEngine(func(_ context.Context, _, _ chatref.Ref, id int64) error {
		attempted++
		if attempted == 3 {
			cancel()
		}
		return nil
	})

	tally, err := e.Run(ctx, testRequest(1, 100))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempted != 3 {
		t.Fatalf("expected 3 attempts before cancel, got %d", attempted)
	}
	if tally.Succeeded != 3 {
		t.Fatalf("expected partial tally to be preserved, got %+v", tally)
	}
}
