//go:build !prod

package waveplot

func openBrowser(url string) {
	// In dev mode we don't actually want to open the browser. That's up to
	// the developer.
}
