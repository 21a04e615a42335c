package internal

// Router is the route registration surface handed to Handler
// implementations. *App satisfies it.
type Router interface {
	GET(pattern string, handler any)
	POST(pattern string, handler any)
	PUT(pattern string, handler any)
	PATCH(pattern string, handler any)
	DELETE(pattern string, handler any)
	Any(pattern string, handler any)
	Handle(method, pattern string, handler any)
}

var _ Router = (*App)(nil)

// Handler declares routes on a router. Collaborating subsystems (the
// leaderboard, profile pages, guild management) plug their handlers into
// the app through this seam.
//
// Example:
//
//	type LeaderboardHandler struct {
//	    levels *levels.Service
//	}
//
//	func (h *LeaderboardHandler) Routes(r guildboard.Router) {
//	    r.GET("/guilds/{guild_id}/leaderboard", h.leaderboard)
//	}
type Handler interface {
	Routes(r Router)
}
