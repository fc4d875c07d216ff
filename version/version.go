package version

// Version is overwritten at build time with -ldflags "-X .../version.Version=vX.Y.Z"
var Version = "v0.1.0"
