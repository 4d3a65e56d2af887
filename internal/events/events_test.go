package events

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/studyhub/internal/db"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

type recorder struct{ got []Event }

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return nil
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	boom := errors.New("broker down")
	m := Multi{a, nil, failing{boom}, b, Nop{}}

	err := m.Publish(context.Background(), Event{Type: TypeExamGraded, Key: "r1"})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("a=%d b=%d", len(a.got), len(b.got))
	}
	if err := (Multi{a}).Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("no failures: %v", err)
	}
}

func TestEventLogPublishAndRecent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	log := NewEventLog(conn, "")
	at := time.Unix(1700000000, 0)
	for _, key := range []string{"r1", "r2"} {
		if err := log.Publish(ctx, Event{Type: TypeExamGraded, Key: key, Payload: map[string]any{"score": 80}, CreatedAt: at}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := log.Publish(ctx, Event{Type: TypeExamCreated, Key: "e1"}); err != nil {
		t.Fatal(err)
	}

	got, err := log.Recent(ctx, TypeExamGraded, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].Key != "r2" || got[1].Key != "r1" {
		t.Fatalf("%+v", got)
	}
	if got[0].SiteID != "local" || got[0].CreatedAt != at.Unix() || !strings.Contains(got[0].DataJSON, `"score":80`) {
		t.Fatalf("%+v", got[0])
	}

	created, err := log.Recent(ctx, TypeExamCreated, 0)
	if err != nil || len(created) != 1 || created[0].CreatedAt == 0 {
		t.Fatalf("%v %+v", err, created)
	}
}

func TestEventLogRejectsUnmarshalablePayload(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := NewEventLog(conn, "site").Publish(ctx, Event{Type: "x", Payload: make(chan int)}); err == nil {
		t.Fatal("expected marshal error")
	}
}
