package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/utils/apierror"
)

const DefaultStoreTimeout = 5 * time.Second

// EventDispatcher pushes socket events to every open connection of the given users.
type EventDispatcher interface {
	DispatchToUsers(ctx context.Context, userIDs []int64, evt events.SocketEvent)
}

// storeContext bounds the store calls of a single operation.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeFailure logs err and converts it into the matching store error.
func storeFailure(ctx context.Context, err error, format string, args ...any) apierror.ErrorResponse {
	log.Errorf(format+": %v", append(args, err)...)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierror.StoreTimeoutError
	}
	return apierror.InternalServerError
}

// dispatchAsync sends evt in the background so slow gateways never delay a response.
func dispatchAsync(dispatcher EventDispatcher, timeout time.Duration, userIDs []int64, evt events.SocketEvent) {
	if dispatcher == nil || len(userIDs) == 0 {
		return
	}

	go func() {
		ctx, cancel := storeContext(context.Background(), timeout)
		defer cancel()
		dispatcher.DispatchToUsers(ctx, userIDs, evt)
	}()
}
