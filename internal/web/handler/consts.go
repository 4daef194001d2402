package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the path of a route group's own root.
	RouterRootPath = ""

	// IDPath is the member path of a resource route group.
	IDPath = "/:id"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// InvalidDataMessage is the message of every validation failure answer.
	InvalidDataMessage = "The given data was invalid."
)
