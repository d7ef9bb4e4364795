package config

import "os"

var environ = os.Environ
