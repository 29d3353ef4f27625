// Package broker moves frames between hub instances over NATS
// JetStream, so activation events reach a waiting user regardless of
// which instance holds their socket.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wook219/pyeonjip-support/internal/model"
)

func Publish(ctx context.Context, js jetstream.JetStream, subject string, frame model.Frame) error {
	if js == nil {
		return fmt.Errorf("internal/broker: jetstream interface is nil")
	}

	p, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("internal/broker: could not encode frame to JSON: %w", err)
	}

	_, err = js.Publish(ctx,
		subject,
		p,
		jetstream.WithMsgID(uuid.NewString()),
	)
	if err != nil {
		return fmt.Errorf("internal/broker: failed to publish to [%s]: %w", subject, err)
	}

	return nil
}

// Subscribe consumes every frame on the stream and forwards it to
// frames. The hub does the room/user routing; the consumer just
// drains the stream.
func Subscribe(ctx context.Context, stream jetstream.Stream, frames chan model.Frame) error {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{})
	if err != nil {
		return fmt.Errorf("internal/broker: failed to create or update consumer: %w", err)
	}

	consumeHandler := func(msg jetstream.Msg) {
		var frame model.Frame

		if err := json.Unmarshal(msg.Data(), &frame); err != nil {
			msg.Term()
			log.Printf("internal/broker: could not decode frame: %v", err)
			return
		}

		msg.Ack()

		select {
		case frames <- frame:
		case <-ctx.Done():
		}
	}

	optErrHandler := jetstream.ConsumeErrHandler(func(cc jetstream.ConsumeContext, err error) {
		log.Printf("internal/broker: consumer error: %v", err)
		cc.Drain()
	})

	consumeCtx, err := consumer.Consume(consumeHandler, optErrHandler)
	if err != nil {
		return fmt.Errorf("internal/broker: failed to start consuming frames: %w", err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Drain()
	}()

	return nil
}
