package weave

// Release and GitCommit are set at build time:
//
//	go build -ldflags "-X github.com/iov-one/tradefin.Release=v1.2.0 -X github.com/iov-one/tradefin.GitCommit=$(git rev-parse --short HEAD)"
var (
	Release   = "v0.1.0-dev"
	GitCommit = ""
)

// Version returns the release name, followed by the commit if known.
func Version() string {
	if GitCommit == "" {
		return Release
	}
	return Release + " " + GitCommit
}
