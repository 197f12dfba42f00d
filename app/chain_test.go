package app

import (
	"context"
	"testing"

	"github.com/iov-one/tradefin/errors"
	"github.com/iov-one/tradefin/weavetest"
	"github.com/iov-one/tradefin/x/utils"
	"github.com/stretchr/testify/assert"
)

func TestChain(t *testing.T) {
	c1 := &weavetest.Decorator{}
	c2 := &weavetest.Decorator{}
	c3 := &weavetest.Decorator{}
	h := &weavetest.Handler{}

	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		nil,
		c2,
		c3,
	).WithHandler(h)

	ctx := context.Background()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "trade/create"}}

	_, err := stack.Check(ctx, nil, tx)
	assert.NoError(t, err)
	_, err = stack.Deliver(ctx, nil, tx)
	assert.NoError(t, err)

	assert.Equal(t, 1, c1.CheckCallCount())
	assert.Equal(t, 1, c3.DeliverCallCount())
	assert.Equal(t, 2, h.CallCount())

	// A failing decorator stops the chain.
	c2.DeliverErr = errors.ErrUnauthorized
	_, err = stack.Deliver(ctx, nil, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	assert.Equal(t, 2, c2.DeliverCallCount())
	assert.Equal(t, 1, c3.DeliverCallCount())
	assert.Equal(t, 2, h.CallCount())

	// A panic is recovered by the recovery decorator.
	panicking := ChainDecorators(utils.NewRecovery(), c1).WithHandler(weavetest.PanicHandler{Msg: "boom"})
	_, err = panicking.Deliver(ctx, nil, tx)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Equal(t, 3, c1.DeliverCallCount())
}
