package collab

import (
	"encoding/json"
	"errors"

	"github.com/fraction12/wireflow/internal/bridge"
)

// Nack codes.
const (
	CodeInvalid  = "invalid"
	CodeUnknown  = "unknown_operation"
	CodeRejected = "rejected"
)

// handleOpSubmit applies a submitted operation and answers the sender
// with an ack or a nack. Other clients learn about the change through the
// doc.changed broadcast.
func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		h.logger.Warn("invalid op.submit payload", "error", err, "user", sender.UserID)
		h.nack(sender, "", CodeInvalid, "malformed payload")
		return
	}

	res, err := h.bridge.Apply(submit.Operation)
	if err != nil {
		h.logger.Debug("operation failed", "type", submit.Operation.Type, "error", err, "user", sender.UserID)
		h.nack(sender, submit.RequestID, nackCode(err), err.Error())
		return
	}

	ack, err := newMessage(TypeOpAck, OperationAckPayload{RequestID: submit.RequestID, Result: res})
	if err != nil {
		h.logger.Error("marshal ack", "error", err)
		return
	}
	sender.Send(ack)
}

func (h *Hub) nack(sender *Client, requestID, code, reason string) {
	msg, err := newMessage(TypeOpNack, OperationNackPayload{RequestID: requestID, Code: code, Reason: reason})
	if err != nil {
		h.logger.Error("marshal nack", "error", err)
		return
	}
	sender.Send(msg)
}

func nackCode(err error) string {
	switch {
	case errors.Is(err, bridge.ErrUnknownOperation):
		return CodeUnknown
	case errors.Is(err, bridge.ErrRejected):
		return CodeRejected
	default:
		return CodeInvalid
	}
}
