package jamfpro

import "github.com/go-logr/logr"

// resolveLogger names the library's log lines and tags them with the server
// they belong to. A zero logger discards.
func resolveLogger(logger logr.Logger, baseURL string) logr.Logger {
	if logger.GetSink() == nil {
		return logr.Discard()
	}
	return logger.WithName("jamfpro").WithValues("base_url", baseURL)
}
