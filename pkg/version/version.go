package version

// version is set at build time with -ldflags "-X github.com/cbodonnell/tileworld/pkg/version.version=..."
var version = "dev"

func Get() string {
	return version
}
