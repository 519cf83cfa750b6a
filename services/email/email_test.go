package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/nudge/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConfig() *core.Config {
	return &core.Config{
		AppName: "Nudge",
		Email: core.EmailConfig{
			FromName:       "Citizen Maths",
			FromAddress:    "noreply@test.cd",
			SubjectPrefix:  "[Test] ",
			SendgridApiKey: "key",
		},
	}
}

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: "Ada", Address: "ada@test.cd"}},
		Subject: "Hello",
		BodyStr: "Keep going!",
	}
}

func TestSendgridService_Send(t *testing.T) {
	origAPI := sendgridAPIFunc
	defer func() { sendgridAPIFunc = origAPI }()

	tests := []struct {
		name    string
		status  int
		apiErr  error
		msg     *core.EmailMessage
		wantErr error
		noCall  bool
	}{
		{name: "accepted", status: http.StatusAccepted, msg: newMessage()},
		{name: "rejected", status: http.StatusBadRequest, msg: newMessage(), wantErr: core.ErrSendFailed},
		{name: "transport error", apiErr: errors.New("boom"), msg: newMessage(), wantErr: errors.New("boom")},
		{name: "no recipient", msg: &core.EmailMessage{Subject: "x", BodyStr: "y"}, wantErr: core.ErrSendFailed, noCall: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var payload map[string]interface{}
			sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
				called = true
				if req.Method != http.MethodPost || !strings.HasSuffix(req.BaseURL, endpoint) {
					t.Errorf("request = %s %s", req.Method, req.BaseURL)
				}
				_ = json.Unmarshal(req.Body, &payload)
				if tt.apiErr != nil {
					return nil, tt.apiErr
				}
				return &rest.Response{StatusCode: tt.status}, nil
			}

			svc := NewSendgridService(testConfig(), nopLogger{})
			err := svc.Send(context.Background(), tt.msg)
			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("Send() error = %v", err)
			case tt.wantErr != nil && err == nil:
				t.Fatalf("Send() error = nil, want %v", tt.wantErr)
			case tt.wantErr == core.ErrSendFailed && errors.Cause(err) != core.ErrSendFailed:
				t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
			}
			if called == tt.noCall {
				t.Errorf("sendgrid called = %v, want %v", called, !tt.noCall)
			}
			if tt.name == "accepted" {
				ps := payload["personalizations"].([]interface{})
				subject := ps[0].(map[string]interface{})["subject"]
				if subject != "[Test] Hello" {
					t.Errorf("subject = %v, want %q", subject, "[Test] Hello")
				}
			}
		})
	}
}

func TestConsoleService_Send(t *testing.T) {
	var buf bytes.Buffer
	svc := NewConsoleService(testConfig(), log.New(&buf, "", 0))

	if err := svc.Send(context.Background(), newMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Subject: [Test] Hello", "To: \"Ada\" <ada@test.cd>", "Keep going!", "multipart/alternative"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Send(ctx, newMessage()); err != context.Canceled {
		t.Errorf("Send() with canceled ctx error = %v, want %v", err, context.Canceled)
	}
}

func TestServiceMock(t *testing.T) {
	svc := NewServiceMock()

	if err := svc.Send(context.Background(), newMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	svc.SetFail(true)
	if err := svc.Send(context.Background(), newMessage()); errors.Cause(err) != core.ErrSendFailed {
		t.Fatalf("Send() error = %v, want %v", err, core.ErrSendFailed)
	}
	if got := len(svc.Sent()); got != 1 {
		t.Errorf("len(Sent()) = %d, want 1", got)
	}
	svc.Reset()
	if got := len(svc.Sent()); got != 0 {
		t.Errorf("len(Sent()) after Reset = %d, want 0", got)
	}
}
