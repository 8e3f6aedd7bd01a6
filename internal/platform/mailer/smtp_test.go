package mailer

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME(`"Galaxy Spa" <spa@example.com>`, "owner@example.com", Message{
		Subject: "🎉 New Booking: Facial - Anna",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)

	for _, want := range []string{
		"To: owner@example.com\r\n",
		"Subject: =?utf-8?q?",
		"Content-Type: multipart/alternative; boundary=",
		"Content-Type: text/plain; charset=utf-8",
		"plain body",
		"Content-Type: text/html; charset=utf-8",
		"<p>html body</p>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Index(s, "plain body") > strings.Index(s, "html body") {
		t.Error("text part must precede the html part")
	}
}

func TestSMTPMailer_RejectsEmptyRecipient(t *testing.T) {
	m := NewSMTPMailer("localhost", 1025, "spa@example.com", "Spa", "", "", false)
	if _, err := m.Send(context.Background(), Message{To: "  "}); err == nil {
		t.Fatal("expected error")
	}
}

// listen starts a local listener and returns a mailer pointed at it.
func listen(t *testing.T) (net.Listener, *SMTPMailer) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port
	return ln, NewSMTPMailer("127.0.0.1", port, "spa@example.com", "Spa", "", "", false)
}

func TestSMTPMailer_SilentServerHonoursDeadline(t *testing.T) {
	ln, m := listen(t)
	go func() {
		var held []net.Conn
		for {
			conn, err := ln.Accept()
			if err != nil {
				for _, c := range held {
					c.Close()
				}
				return
			}
			held = append(held, conn)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := m.Send(ctx, Message{To: "owner@example.com", Subject: "s", Text: "t"})
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a server that never greets")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Send did not return after its context deadline")
	}
}

func TestSMTPMailer_Delivers(t *testing.T) {
	ln, m := listen(t)
	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); cmd {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250-fake")
				_ = tp.PrintfLine("250 8BITMIME")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				received <- string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("250 ok")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.Send(ctx, Message{To: "owner@example.com", Subject: "Hello", Text: "plain body"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case body := <-received:
		if !strings.Contains(body, "To: owner@example.com") || !strings.Contains(body, "plain body") {
			t.Fatalf("unexpected message:\n%s", body)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received DATA")
	}
}

func TestSMTPMailer_CancelledBeforeDial(t *testing.T) {
	_, m := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Send(ctx, Message{To: "owner@example.com", Text: "t"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestMailerSend_Disabled(t *testing.T) {
	m := NewMailerSend("", "Spa", "spa@example.com")
	if m.Enabled {
		t.Fatal("mailer without api key must be disabled")
	}
	if _, err := m.Send(context.Background(), Message{To: "a@b.co"}); err == nil {
		t.Fatal("expected error from disabled mailer")
	}
}
