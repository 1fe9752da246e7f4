package stdio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bft-labs/copycat/internal/domain"
)

func TestLineChannel_Receive(t *testing.T) {
	ch := NewLineChannel(strings.NewReader("start\nup\r\nX\n"), io.Discard)
	ctx := context.Background()

	for _, want := range []string{"start", "up", "X"} {
		got, err := ch.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if string(got) != want {
			t.Errorf("Receive = %q, want %q", got, want)
		}
	}
	if _, err := ch.Receive(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Receive at end = %v, want io.EOF", err)
	}
}

func TestLineChannel_Publish(t *testing.T) {
	var out bytes.Buffer
	ch := NewLineChannel(strings.NewReader(""), &out)

	for _, p := range []string{"up", "left"} {
		if err := ch.Publish(context.Background(), []byte(p)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if out.String() != "up\nleft\n" {
		t.Errorf("output = %q, want %q", out.String(), "up\nleft\n")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestLineChannel_PublishFailure(t *testing.T) {
	ch := NewLineChannel(strings.NewReader(""), failingWriter{})

	err := ch.Publish(context.Background(), []byte("up"))
	if !errors.Is(err, domain.ErrChannelUnavailable) {
		t.Errorf("Publish() error = %v, want ErrChannelUnavailable", err)
	}
}
