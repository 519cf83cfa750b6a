package emailsvc

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
)

// consoleService writes emails to a logger instead of sending them; used in development.
type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	out              *log.Logger // nil: no output
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, out *log.Logger) *consoleService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail(),
		subjPrefix:       conf.Email.SubjectPrefix,
		out:              out,
	}
}

func (svc *consoleService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return errors.Wrap(core.ErrSendFailed, "email has no recipient or content")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := svc.format(msg)
	if err != nil {
		return err
	}
	if svc.out != nil {
		svc.out.Println(body)
	}
	return nil
}

func (svc *consoleService) format(msg *core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	_, _ = fmt.Fprint(body, "\r\n")

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return "", errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return "", errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ServiceMock records the emails it is asked to send.
type ServiceMock struct {
	consoleService

	mu           sync.Mutex
	SentMessages []core.EmailMessage
	fail         bool
}

var _ core.EmailService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{
		consoleService: consoleService{
			defaultFromEmail: mail.Address{Name: "Nudge", Address: "noreply@localhost"},
		},
	}
}

func (svc *ServiceMock) Send(ctx context.Context, msg *core.EmailMessage) error {
	svc.mu.Lock()
	fail := svc.fail
	svc.mu.Unlock()
	if fail {
		return errors.Wrap(core.ErrSendFailed, "mock failure")
	}
	if err := svc.consoleService.Send(ctx, msg); err != nil {
		return err
	}
	svc.mu.Lock()
	svc.SentMessages = append(svc.SentMessages, *msg)
	svc.mu.Unlock()
	return nil
}

// SetFail makes every following send fail with core.ErrSendFailed.
func (svc *ServiceMock) SetFail(fail bool) {
	svc.mu.Lock()
	svc.fail = fail
	svc.mu.Unlock()
}

// Sent returns a copy of the recorded emails.
func (svc *ServiceMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.SentMessages...)
}

func (svc *ServiceMock) Reset() {
	svc.mu.Lock()
	svc.SentMessages = nil
	svc.fail = false
	svc.mu.Unlock()
}
