// Package web holds the pages of the rig monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"
)

//go:embed static/*
var staticAssets embed.FS

// GetAssets returns the monitor pages. RETENTION_MONITOR_DEV=true serves
// them from the source tree instead, and a directory as its value serves
// them from that directory, so pages can be edited without rebuilding.
func GetAssets() http.FileSystem {
	if dir, ok := developmentDir(); ok {
		fmt.Fprintf(os.Stderr,
			"In monitoring tool development mode, serving assets from %s\n",
			dir)

		return http.Dir(dir)
	}

	subFS, err := fs.Sub(staticAssets, "static")
	if err != nil {
		panic(err)
	}

	return http.FS(subFS)
}

func developmentDir() (string, bool) {
	value, exist := os.LookupEnv("RETENTION_MONITOR_DEV")
	if !exist {
		return "", false
	}

	switch strings.ToLower(value) {
	case "", "0", "false":
		return "", false
	case "1", "true":
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			panic("error getting path")
		}

		return path.Join(path.Dir(file), "static"), true
	default:
		return value, true
	}
}
