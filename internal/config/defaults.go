package config

import _ "embed"

//go:embed config.default.toml
var DefaultConfigTOML string

//go:embed config.toml
var SampleConfigTOML string
