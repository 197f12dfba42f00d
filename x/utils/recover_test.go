package utils

import (
	"context"
	"testing"

	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/store"
	"github.com/iov-one/tradefin/weavetest"
	"github.com/iov-one/tradefin/weavetest/assert"
)

func TestRecovery(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "trade/create"}}
	r := NewRecovery()

	_, err := r.Check(ctx, db, tx, weavetest.PanicHandler{Msg: "check"})
	assert.IsErr(t, errors.ErrPanic, err)

	_, err = r.Deliver(ctx, db, tx, weavetest.PanicHandler{Msg: "deliver"})
	assert.IsErr(t, errors.ErrPanic, err)

	h := &weavetest.Handler{DeliverErr: errors.ErrState}
	_, err = r.Deliver(ctx, db, tx, h)
	assert.IsErr(t, errors.ErrState, err)

	_, err = r.Check(ctx, db, tx, &weavetest.Handler{})
	assert.Nil(t, err)
}
