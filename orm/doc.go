/*
Package orm provides an easy to use db wrapper.

Break state space into prefixed sections called Buckets. Each bucket contains
only one type of model and each model is stored under a primary key. Buckets
can declare secondary indexes, that allow to find all models for a given
index value, for example all trades of a buyer.

Models are serialized using protobuf.

Sequence generates a series of increasing keys, it is used to allocate primary
keys for new models.
*/
package orm
