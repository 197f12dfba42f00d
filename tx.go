package weave

import (
	"reflect"

	"github.com/iov-one/tradefin/errors"
)

// Msg is a request for the application to take an action (make a state
// transition). It is just the request, and must be validated by the
// Handlers. All authentication information is provided by the context.
type Msg interface {
	// Path returns the message path. This is used by the Router to locate
	// the proper Handler. Msg should be created alongside the Handler
	// that corresponds to them.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks of the content. It must not
	// access the state.
	Validate() error
}

// Tx represent the data sent from the user. It wraps a single message.
type Tx interface {
	// GetMsg returns the action we wish to communicate.
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message.
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
//
// The destination must be a pointer to a structure that implements Msg.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	// This is a helper function that is supposed to be used with the
	// pointer to a message. Pointer type is never stored inside of a
	// transaction.
	res := reflect.ValueOf(msg)
	if res.Kind() == reflect.Ptr {
		res = res.Elem()
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrHuman, "destination must be a pointer")
	}
	if res.Type() != dest.Elem().Type() {
		return errors.Wrapf(errors.ErrType, "want %s message, got %s", dest.Elem().Type(), res.Type())
	}
	dest.Elem().Set(res)
	return nil
}
