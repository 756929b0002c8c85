package activity

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brynix/brynixbot/internal/sqlitedb"
)

func newTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := NewStore(driver, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fakePublisher struct {
	got []Entry
	err error
}

func (f *fakePublisher) Publish(_ context.Context, e Entry) error {
	f.got = append(f.got, e)
	return f.err
}

func TestJournalRecordAndList(t *testing.T) {
	for _, driver := range []string{sqlitedb.DriverModernc, sqlitedb.DriverMattn} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			pub := &fakePublisher{}
			j := NewJournal(newTestStore(t, driver), pub, zerolog.Nop())
			base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
			j.now = func() time.Time { return base }

			note, err := j.Record(ctx, Entry{ChatID: "g1", Kind: KindNote, Author: "Ana", Text: "revisar escopo"})
			require.NoError(t, err)
			assert.NotEmpty(t, note.ID)
			assert.Equal(t, base, note.CreatedAt)

			j.now = func() time.Time { return base.Add(time.Minute) }
			_, err = j.Record(ctx, Entry{ChatID: "g1", Kind: KindDoc, Link: "https://drive/x"})
			require.NoError(t, err)
			_, err = j.Record(ctx, Entry{ChatID: "g2", Kind: KindNote, Text: "outro"})
			require.NoError(t, err)

			all, err := j.List(ctx, Filter{ChatID: "g1"})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, KindDoc, all[0].Kind)
			assert.Equal(t, "revisar escopo", all[1].Text)

			notes, err := j.List(ctx, Filter{Kind: KindNote})
			require.NoError(t, err)
			assert.Len(t, notes, 2)

			recent, err := j.List(ctx, Filter{ChatID: "g1", Since: base.Add(30 * time.Second)})
			require.NoError(t, err)
			assert.Len(t, recent, 1)

			assert.Len(t, pub.got, 3)
		})
	}
}

func TestJournalPublishFailureIsNotFatal(t *testing.T) {
	j := NewJournal(newTestStore(t, ""), &fakePublisher{err: errors.New("broker down")}, zerolog.Nop())
	_, err := j.Record(context.Background(), Entry{ChatID: "g", Kind: KindReminder})
	assert.NoError(t, err)
}

func TestJournalWithoutSinks(t *testing.T) {
	j := NewJournal(nil, nil, zerolog.Nop())
	_, err := j.Record(context.Background(), Entry{ChatID: "g", Kind: KindNote})
	require.ErrorIs(t, err, ErrNoSink)
	list, err := j.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestJournalPublisherOnly(t *testing.T) {
	pub := &fakePublisher{}
	j := NewJournal(nil, pub, zerolog.Nop())
	e, err := j.Record(context.Background(), Entry{ChatID: "g", Kind: KindNote})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Len(t, pub.got, 1)

	pub.err = errors.New("broker down")
	_, err = j.Record(context.Background(), Entry{ChatID: "g", Kind: KindNote})
	assert.ErrorContains(t, err, "broker down")
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherMessageShape(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, timeout: time.Second}
	e := Entry{ID: "id-1", ChatID: "g1", Kind: KindDaily, Text: "resumo", CreatedAt: time.Unix(100, 0).UTC()}
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "g1", string(msg.Key))
	assert.Equal(t, "daily", string(msg.Headers[0].Value))

	var decoded Entry
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e, decoded)
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	_, err := NewKafkaPublisher(" , ", "topic")
	assert.Error(t, err)
	_, err = NewKafkaPublisher("localhost:9092", "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher("localhost:9092, localhost:9093", "brynix.activity")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestKafkaAuthTransport(t *testing.T) {
	tr, err := KafkaAuth{}.transport()
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = KafkaAuth{Mechanism: "scram-sha-512", Username: "u", Password: "p", TLS: true}.transport()
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.NotNil(t, tr.TLS)
	assert.Equal(t, "SCRAM-SHA-512", tr.SASL.Name())

	tr, err = KafkaAuth{Mechanism: "PLAIN", Username: "u"}.transport()
	require.NoError(t, err)
	assert.Nil(t, tr.TLS)
	assert.Equal(t, "PLAIN", tr.SASL.Name())

	_, err = KafkaAuth{Mechanism: "GSSAPI"}.transport()
	assert.Error(t, err)

	_, err = NewKafkaPublisher("localhost:9092", "t", KafkaAuth{Mechanism: "nope"})
	assert.Error(t, err)
}
