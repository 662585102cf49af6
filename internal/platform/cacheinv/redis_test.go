package cacheinv

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type published struct {
	channel string
	msg     Message
}

type fakeClient struct {
	published  []published
	deleted    []string
	publishErr error
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	var msg Message
	_ = json.Unmarshal(message.([]byte), &msg)
	f.published = append(f.published, published{channel: channel, msg: msg})
	return goredis.NewIntResult(1, f.publishErr)
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.deleted = append(f.deleted, keys...)
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) *goredis.PubSub {
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestRedisInvalidatorPublishesAndDeletes(t *testing.T) {
	fc := &fakeClient{}
	inv := newRedisInvalidator(logger.NewNop(), fc, Config{Channel: "inv"})

	userID := uuid.New()
	if err := inv.Invalidate(context.Background(), DashboardTag(userID), AllDashboards, ""); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if len(fc.published) != 2 {
		t.Fatalf("published: want=2 got=%d", len(fc.published))
	}
	if fc.published[0].channel != "inv" || fc.published[0].msg.Tag != "dashboard:"+userID.String() {
		t.Fatalf("unexpected first message: %+v", fc.published[0])
	}
	if fc.published[1].msg.Tag != AllDashboards {
		t.Fatalf("unexpected second message: %+v", fc.published[1])
	}
	if len(fc.deleted) != 1 || fc.deleted[0] != "cache:dashboard:"+userID.String() {
		t.Fatalf("deleted keys: %v", fc.deleted)
	}
}

func TestRedisInvalidatorJoinsPublishErrors(t *testing.T) {
	boom := errors.New("connection reset")
	fc := &fakeClient{publishErr: boom}
	inv := newRedisInvalidator(logger.NewNop(), fc, Config{})

	err := inv.Invalidate(context.Background(), RoadmapTag(uuid.New()))
	if !errors.Is(err, boom) {
		t.Fatalf("Invalidate: expected wrapped publish error, got %v", err)
	}
	if len(fc.deleted) != 1 {
		t.Fatalf("keys should still be deleted after a publish failure: %v", fc.deleted)
	}
}

func TestRedisInvalidatorDecodeSkipsOwnMessages(t *testing.T) {
	inv := newRedisInvalidator(logger.NewNop(), &fakeClient{}, Config{})

	own, _ := json.Marshal(Message{Tag: "roadmap:x", Source: inv.source})
	if _, ok := inv.decode(string(own)); ok {
		t.Fatalf("decode: own message should be skipped")
	}
	other, _ := json.Marshal(Message{Tag: "roadmap:x", Source: "elsewhere"})
	if tag, ok := inv.decode(string(other)); !ok || tag != "roadmap:x" {
		t.Fatalf("decode: got tag=%q ok=%v", tag, ok)
	}
	if _, ok := inv.decode("{not json"); ok {
		t.Fatalf("decode: malformed payload should be skipped")
	}
}

func TestParseRoadmapTag(t *testing.T) {
	id := uuid.New()
	if got, ok := ParseRoadmapTag(RoadmapTag(id)); !ok || got != id {
		t.Fatalf("ParseRoadmapTag: got=%s ok=%v", got, ok)
	}
	for _, tag := range []string{DashboardTag(id), "roadmap:not-a-uuid", ""} {
		if _, ok := ParseRoadmapTag(tag); ok {
			t.Fatalf("ParseRoadmapTag(%q): expected false", tag)
		}
	}
}
