package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the service-wide logger. It is usable before InitLogger runs so that
// packages exercised from tests still log somewhere sensible.
var Log = logrus.New()

func InitLogger(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		Log.Warnf("⚠️ [LOGGER] Unknown LOG_LEVEL %q, falling back to info", level)
	}
	Log.SetLevel(lvl)
}

// MaskToken hides all but the last 6 characters for logging.
func MaskToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "..." + token[len(token)-6:]
}
