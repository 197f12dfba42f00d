/*
Package natspay implements the value transfer service client on top of NATS
request/reply messaging.

Each transfer is a single request published on the configured subject. The
payment processor must reply with {"ok": true} once the funds were moved, or
with {"ok": false, "error": "..."} if it refused the transfer. A payout may be
requested more than once with the same request id, the processor must move
the funds only for the first one and confirm the others.
*/
package natspay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/x/balance"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when the client is configured without a subject.
const DefaultSubject = "tradefin.transfer"

// Config holds the NATS connection configuration.
type Config struct {
	URL           string
	Name          string
	Subject       string
	ReconnectWait time.Duration
	MaxReconnects int
	Timeout       time.Duration
}

// requester is implemented by *nats.Conn.
type requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Client is a balance.Transferer sending each transfer as a NATS request.
type Client struct {
	conn    requester
	subject string
	timeout time.Duration
}

var _ balance.Transferer = (*Client)(nil)

// Connect opens a NATS connection and returns a client using it. Returned
// connection must be closed by the caller.
func Connect(conf Config) (*Client, *nats.Conn, error) {
	conn, err := nats.Connect(conf.URL,
		nats.Name(conf.Name),
		nats.ReconnectWait(conf.ReconnectWait),
		nats.MaxReconnects(conf.MaxReconnects),
		nats.Timeout(conf.Timeout),
	)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInput, "connect to %q: %s", conf.URL, err)
	}
	return NewClient(conn, conf.Subject, conf.Timeout), conn, nil
}

// NewClient returns a client publishing transfer requests to given subject.
// A non zero timeout bounds each request.
func NewClient(conn requester, subject string, timeout time.Duration) *Client {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Client{conn: conn, subject: subject, timeout: timeout}
}

// Request is the payload of a transfer request.
type Request struct {
	ID      string        `json:"id"`
	ChainID string        `json:"chain_id,omitempty"`
	Dest    weave.Address `json:"dest"`
	Amount  int64         `json:"amount"`
}

// Reply is the payload of a transfer reply.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Transfer requests the payment processor to move given amount to the
// destination and waits for the confirmation.
func (c *Client) Transfer(ctx weave.Context, dest weave.Address, amount int64) error {
	id, ok := balance.TransferRef(ctx)
	if !ok {
		id = uuid.New().String()
	}
	req := Request{
		ID:      id,
		ChainID: weave.GetChainID(ctx),
		Dest:    dest,
		Amount:  amount,
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := weave.GetLogger(ctx).With("request", req.ID)
	log.Debug("transfer request", "dest", dest.String(), "amount", amount)

	msg, err := c.conn.RequestWithContext(ctx, c.subject, raw)
	switch {
	case err == nats.ErrNoResponders:
		return errors.Wrapf(balance.ErrTransfer, "request %s: %s", req.ID, err)
	case err != nil:
		// The request may have been delivered.
		return errors.Wrapf(balance.ErrTransferUnknown, "request %s: %s", req.ID, err)
	}
	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return errors.Wrapf(balance.ErrTransferUnknown, "request %s: malformed reply: %s", req.ID, err)
	}
	if !reply.OK {
		return errors.Wrapf(balance.ErrTransfer, "request %s: refused: %s", req.ID, reply.Error)
	}
	log.Debug("transfer confirmed")
	return nil
}
