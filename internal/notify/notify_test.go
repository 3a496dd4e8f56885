package notify

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
)

type panicky struct{}

func (panicky) Success(string) { panic("boom") }
func (panicky) Error(string)   { panic("boom") }
func (panicky) Info(string)    { panic("boom") }

func TestRecorderKeepsOrder(t *testing.T) {
	r := NewRecorder()
	r.Success("one")
	r.Error("two")
	r.Info("three")

	want := []Message{
		{Level: LevelSuccess, Text: "one"},
		{Level: LevelError, Text: "two"},
		{Level: LevelInfo, Text: "three"},
	}
	if got := r.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Messages() = %#v, want %#v", got, want)
	}
}

func TestDeliverRecoversPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped Deliver: %v", r)
		}
	}()
	Deliver(panicky{}, LevelError, "x")
	Deliver(nil, LevelInfo, "x")
}

func TestFanoutSkipsBrokenNotifier(t *testing.T) {
	rec := NewRecorder()
	f := Fanout{panicky{}, NewLogger(zap.NewNop()), rec}
	f.Success("saved")
	f.Info("deleted")
	f.Error("failed")

	if got := len(rec.Messages()); got != 3 {
		t.Fatalf("expected 3 recorded messages, got %d", got)
	}
}
