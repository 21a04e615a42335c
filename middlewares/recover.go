package middlewares

import (
	"runtime/debug"

	guildboard "github.com/guildboard/guildboard"
)

// Recover converts panics anywhere below it into a *PanicError, which
// the error boundary renders as a 500 with the stack logged.
func Recover() guildboard.Middleware {
	return func(next guildboard.RequestHandler) guildboard.RequestHandler {
		return func(r *guildboard.Request) (resp guildboard.Response, err error) {
			defer func() {
				if v := recover(); v != nil {
					resp = nil
					err = &guildboard.PanicError{Value: v, Stack: debug.Stack()}
				}
			}()
			return next(r)
		}
	}
}
