package config

import "os"

func IsDebug() bool {
	v := os.Getenv("TUTORD_DEBUG")
	return v == "1" || v == "true"
}

// GetRuntimePath resolves the runtime directory before the env file in it
// is loaded, so it cannot come from the .env itself.
func GetRuntimePath() string {
	if p := os.Getenv("TUTORD_RUNTIME_PATH"); p != "" {
		return p
	}
	return ".tutord"
}
