// Package control implements the local gRPC control API of the monitor
// switcher.
//
// The service is described by a hand-written grpc.ServiceDesc over protobuf
// well-known types, so no generated code is needed: SwitchTo takes the machine
// name as a StringValue and both methods answer with a Struct. The package
// also converts between those messages and domain types.
package control
