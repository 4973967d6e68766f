package shared

const (
	TFile = iota + 1
	TDir
)

// Entry is one child of a listed directory.
type Entry struct {
	Name string
	Attr int32
}

// Params is the connection-level configuration the client needs. It replaces any
// process-wide current user/host/port state.
type Params struct {
	Server   string
	SSL      bool
	Email    string
	Password string
}
