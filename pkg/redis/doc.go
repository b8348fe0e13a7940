// Package redis connects to Redis and provides a Redis-backed storage.Backend.
//
// Storage keeps every tab's durable state under one namespace and announces
// mutations on a pub/sub channel, so tabs running in different processes see
// each other's writes the same way in-process tabs do through
// storage.MemoryBackend.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	backend := redis.NewStorage(client, cfg)
//	defer backend.Close()
//
// Connect retries according to Config; Healthcheck returns a ping probe.
// Sentinel errors wrap the go-redis errors with errors.Join.
package redis
