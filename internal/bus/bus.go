// Package bus serves conversation turns over NATS request/reply.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/planner/internal/dispatch"
)

// Turner runs one conversation turn.
type Turner interface {
	Turn(ctx context.Context, req dispatch.TurnRequest) (*dispatch.TurnResponse, error)
}

// ErrRemote is wrapped around errors reported by the responder.
var ErrRemote = errors.New("remote turn failed")

// reply is the envelope sent back to requesters. Exactly one field is set.
type reply struct {
	Response *dispatch.TurnResponse `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// Responder answers turn requests on a subject as part of a queue group.
type Responder struct {
	turner Turner
	logger *logging.Logger
}

// NewResponder creates a responder for turner.
func NewResponder(turner Turner) *Responder {
	return &Responder{
		turner: turner,
		logger: logging.New().WithComponent("bus"),
	}
}

// Serve subscribes on subject in queue and blocks until ctx is done.
func (r *Responder) Serve(ctx context.Context, nc *nats.Conn, subject, queue string) error {
	sub, err := nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if err := msg.Respond(r.handle(ctx, msg.Data)); err != nil {
			r.logger.Warn("respond failed", map[string]interface{}{"subject": subject, "error": err.Error()})
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.logger.Info("serving", map[string]interface{}{"subject": subject, "queue": queue})

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", subject, err)
	}
	return nil
}

// handle decodes one request and encodes the reply.
func (r *Responder) handle(ctx context.Context, data []byte) []byte {
	var req dispatch.TurnRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encode(reply{Error: "invalid request: " + err.Error()})
	}
	if len(req.Messages) == 0 {
		return encode(reply{Error: "messages must not be empty"})
	}
	resp, err := r.turner.Turn(ctx, req)
	if err != nil {
		r.logger.Error("turn failed", map[string]interface{}{
			"request_id": uuid.NewString(),
			"error":      err.Error(),
		})
		return encode(reply{Error: err.Error()})
	}
	return encode(reply{Response: resp})
}

func encode(rep reply) []byte {
	data, err := json.Marshal(rep)
	if err != nil {
		data, _ = json.Marshal(reply{Error: "encode reply: " + err.Error()})
	}
	return data
}

// Request sends req to subject and waits for the reply or ctx expiry.
func Request(ctx context.Context, nc *nats.Conn, subject string, req dispatch.TurnRequest) (*dispatch.TurnResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	return decodeReply(msg.Data)
}

func decodeReply(data []byte) (*dispatch.TurnResponse, error) {
	var rep reply
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if rep.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemote, rep.Error)
	}
	if rep.Response == nil {
		return nil, fmt.Errorf("decode reply: empty response")
	}
	return rep.Response, nil
}
