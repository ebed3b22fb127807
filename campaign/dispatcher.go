/*
Package campaign dispatches marketing messages to a resolved audience.

PURPOSE:
  Turns a segment into outbound messages. Delivery itself is an external
  collaborator behind the Sender interface; this package only owns
  audience resolution, batching, and pacing.

BATCHING:
  Bulk sends go out in fixed-size batches with a pause between batches
  so the delivery collaborator is never hammered with the whole client
  base at once. The pause is context-cancellable: shutdown does not wait
  out a sleep.

PREVIEW:
  A preview resolves the audience and reports {count, sample} without
  sending anything.

SEE ALSO:
  - segment: Audience resolution
*/
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minimart/backoffice/segment"
)

// SampleSize caps the number of members returned by a preview.
const SampleSize = 5

// Message is the campaign payload delivered to each audience member.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers one batch of messages. Implementations are external
// collaborators (SMTP relay, push gateway); the default one only logs.
type Sender interface {
	SendBatch(ctx context.Context, members []segment.Member, msg Message) error
}

// Preview is the dry-run result for a segment.
type Preview struct {
	Segment segment.Segment  `json:"segment"`
	Count   int              `json:"count"`
	Sample  []segment.Member `json:"sample"`
}

// Result reports what a dispatch actually did.
type Result struct {
	Segment    segment.Segment `json:"segment"`
	Recipients int             `json:"recipients"`
	Batches    int             `json:"batches"`
}

// Dispatcher resolves an audience and hands it to the Sender in batches.
type Dispatcher struct {
	Resolver *segment.Resolver
	Sender   Sender
	Log      *logrus.Logger

	BatchSize  int
	BatchPause time.Duration
}

func NewDispatcher(resolver *segment.Resolver, sender Sender, batchSize int, pause time.Duration, log *logrus.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{
		Resolver:   resolver,
		Sender:     sender,
		Log:        log,
		BatchSize:  batchSize,
		BatchPause: pause,
	}
}

// Preview resolves the audience without sending.
func (d *Dispatcher) Preview(ctx context.Context, seg segment.Segment) (*Preview, error) {
	members, err := d.Resolver.Resolve(ctx, seg)
	if err != nil {
		return nil, err
	}
	sample := members
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	return &Preview{Segment: seg, Count: len(members), Sample: sample}, nil
}

// Send resolves the audience and delivers the message batch by batch.
// A failed batch aborts the dispatch; already-sent batches are not
// retracted (delivery is not transactional).
func (d *Dispatcher) Send(ctx context.Context, seg segment.Segment, msg Message) (*Result, error) {
	members, err := d.Resolver.Resolve(ctx, seg)
	if err != nil {
		return nil, err
	}

	batches := 0
	for start := 0; start < len(members); start += d.BatchSize {
		if batches > 0 && d.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.BatchPause):
			}
		}

		end := start + d.BatchSize
		if end > len(members) {
			end = len(members)
		}
		if err := d.Sender.SendBatch(ctx, members[start:end], msg); err != nil {
			return nil, fmt.Errorf("campaign: batch %d: %w", batches+1, err)
		}
		batches++
	}

	d.Log.WithFields(logrus.Fields{
		"segment":    seg,
		"recipients": len(members),
		"batches":    batches,
	}).Info("campaign dispatched")

	return &Result{Segment: seg, Recipients: len(members), Batches: batches}, nil
}

// LogSender is the default Sender: it records the batch and delivers
// nothing. Real delivery is wired in by the operator.
type LogSender struct {
	Log *logrus.Logger
}

func (s *LogSender) SendBatch(_ context.Context, members []segment.Member, msg Message) error {
	s.Log.WithFields(logrus.Fields{
		"recipients": len(members),
		"subject":    msg.Subject,
	}).Info("campaign batch (log-only sender)")
	return nil
}
