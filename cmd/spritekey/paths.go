package main

import "path/filepath"

// withPNGExt appends ".png" to paths that have no extension.
func withPNGExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".png"
	}
	return path
}
