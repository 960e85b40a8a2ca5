package gpchw

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type calibrationError struct{ ch int }

func (e calibrationError) Error() string { return fmt.Sprintf("channel %d not calibrated", e.ch) }
func (calibrationError) Kind() string    { return "CalibrationError" }

func TestRemoteErrorIsRemoteExecution(t *testing.T) {
	var err error = &RemoteError{Kind: KindUnknownMethod, Message: "no method Foo"}
	if !errors.Is(err, ErrRemoteExecution) {
		t.Fatal("RemoteError should match ErrRemoteExecution")
	}
	if errors.Is(err, ErrChannelClosed) {
		t.Fatal("RemoteError should not match ErrChannelClosed")
	}
	if !strings.Contains(err.Error(), "UnknownMethod") {
		t.Fatalf("Error() = %q, want kind in text", err.Error())
	}
}

func TestNewRemoteErrorKinds(t *testing.T) {
	re := newRemoteError(errors.New("boom"))
	if re.Kind != "*errors.errorString" || re.Message != "boom" {
		t.Fatalf("plain error converted to %+v", re)
	}

	wrapped := fmt.Errorf("reading: %w", calibrationError{ch: 3})
	re = newRemoteError(wrapped)
	if re.Kind != "CalibrationError" {
		t.Fatalf("Kind = %q, want CalibrationError", re.Kind)
	}
	if re.Message != "reading: channel 3 not calibrated" {
		t.Fatalf("Message = %q", re.Message)
	}
}

func TestNewRemoteErrorKeepsSentinels(t *testing.T) {
	re := newRemoteError(fmt.Errorf("claiming 3: %w", ErrAlreadyClaimed))
	if re.Kind != "AlreadyClaimed" {
		t.Fatalf("Kind = %q, want AlreadyClaimed", re.Kind)
	}
	var err error = re
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatal("want errors.Is(err, ErrAlreadyClaimed)")
	}
	if !errors.Is(err, ErrRemoteExecution) {
		t.Fatal("want errors.Is(err, ErrRemoteExecution)")
	}
	if errors.Is(err, ErrOutOfRange) {
		t.Fatal("AlreadyClaimed must not match ErrOutOfRange")
	}
}

func TestRemoteErrorRoundTripsThroughMsgpack(t *testing.T) {
	in := response{ID: 7, Err: &RemoteError{Kind: KindPanic, Message: "nil map", Traceback: "goroutine 1 [running]:"}}
	data, err := MsgpackSerializer{}.Marshal(&in)
	if err != nil {
		t.Fatal(err)
	}
	var out response
	if err := (MsgpackSerializer{}).Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != 7 || out.Err == nil || *out.Err != *in.Err {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
	if !strings.Contains(out.Err.String(), "goroutine 1") {
		t.Fatalf("String() lost the traceback: %q", out.Err.String())
	}
}
