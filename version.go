package portico

import _ "embed"

// Version is the current release of Portico.
//
//go:embed VERSION
var Version string
