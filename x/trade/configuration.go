package trade

import (
	"time"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/gconf"
)

const confPackage = "trade"

// DefaultConfiguration is used when no configuration was stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		EmergencyRefundDelay: weave.AsUnixDuration(30 * 24 * time.Hour),
		MaxDetailsLength:     1024,
		MaxReasonLength:      512,
	}
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	if c.EmergencyRefundDelay <= 0 {
		errs = errors.AppendField(errs, "EmergencyRefundDelay", errors.ErrInput)
	}
	if c.MaxDetailsLength <= 0 {
		errs = errors.AppendField(errs, "MaxDetailsLength", errors.ErrInput)
	}
	if c.MaxReasonLength <= 0 {
		errs = errors.AppendField(errs, "MaxReasonLength", errors.ErrInput)
	}
	return errs
}

// loadConf returns the stored configuration or the default one.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, confPackage, &conf); {
	case errors.ErrNotFound.Is(err):
		def := DefaultConfiguration()
		return &def, nil
	case err != nil:
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
