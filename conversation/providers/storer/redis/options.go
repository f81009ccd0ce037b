package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/w-h-a/tutor/conversation/providers/storer"
)

type clientKey struct{}

func WithClient(client goredis.UniversalClient) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, clientKey{}, client)
	}
}

func ClientFrom(ctx context.Context) (goredis.UniversalClient, bool) {
	client, ok := ctx.Value(clientKey{}).(goredis.UniversalClient)
	return client, ok && client != nil
}
