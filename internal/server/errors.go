package server

// Client-facing messages for router-level and lookup failures.
const (
	MsgRouteNotFound    = "The requested resource does not exist on this server!"
	MsgMethodNotAllowed = "The requested method is not allowed for this resource"
	MsgAccountNotFound  = "account not found"
	MsgUsernameTaken    = "username is already taken"
)
