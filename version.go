package flowbot

// Version is the release of the flowbot compiler, stamped by the build.
var Version = "0.1.0-dev"
