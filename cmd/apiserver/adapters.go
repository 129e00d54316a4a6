package main

import "context"

// pingerFunc adapts a health-check function to the handlers.Pinger interface.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
