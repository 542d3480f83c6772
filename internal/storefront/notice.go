package storefront

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short message for the user, shown once and then dropped.
type Notice struct {
	Title   string
	Message string
	Level   Level
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
