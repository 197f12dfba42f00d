/*
Package weave defines the common interfaces that weave together the
subpackages of the trade finance application, as well as implementations of
some of the simpler components.

We pass context through context.Context between the engine, decorators and
handlers. To do so, weave defines some common keys to store info, such as
block height, block time and chain id. Each extension may add its own keys to
enrich the context with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ panics if the value was previously set to avoid lower-level modules
overwriting the value (eg. height, block time).
*/
package weave
