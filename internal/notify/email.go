package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type emailNotifier struct {
	host     string
	port     int
	from     string
	to       string
	username string
	password string
}

func NewEmail(host string, port int, from, to, username, password string) (Notifier, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if port <= 0 {
		return nil, fmt.Errorf("smtp port must be > 0")
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("from and to addresses are required")
	}

	return &emailNotifier{
		host:     host,
		port:     port,
		from:     from,
		to:       to,
		username: username,
		password: password,
	}, nil
}

func (e *emailNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("snapvault %s %s", event.Operation, event.Status)

	var body strings.Builder
	fmt.Fprintf(&body, "operation: %s\r\n", event.Operation)
	fmt.Fprintf(&body, "status: %s\r\n", event.Status)
	if event.Key != "" {
		fmt.Fprintf(&body, "key: %s\r\n", event.Key)
	}
	if event.Dest != "" {
		fmt.Fprintf(&body, "dest: %s\r\n", event.Dest)
	}
	if event.Bytes > 0 {
		fmt.Fprintf(&body, "bytes: %d\r\n", event.Bytes)
	}
	fmt.Fprintf(&body, "duration: %s\r\n", event.Duration)
	if event.Error != "" {
		fmt.Fprintf(&body, "error: %s\r\n", event.Error)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		e.from, e.to, subject, body.String(),
	)

	if err := e.send(ctx, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// send speaks the same session smtp.SendMail would, but over a
// connection dialed with the caller's context and bounded by its
// deadline, so notification timeouts actually apply.
func (e *emailNotifier) send(ctx context.Context, msg []byte) error {
	addr := e.host + ":" + strconv.Itoa(e.port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, e.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return err
		}
	}
	if e.username != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(e.from); err != nil {
		return err
	}
	if err := c.Rcpt(e.to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
