package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/tradefin/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	proto.Message
	Validate() error
}

// ModelSlicePtr is a pointer to a slice of models, for example *[]*Trade.
type ModelSlicePtr interface{}

func encode(m Model) ([]byte, error) {
	raw, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot marshal %T: %s", m, err)
	}
	return raw, nil
}

func decode(raw []byte, dest Model) error {
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}
