package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger shared by all services. Both the root
// *logrus.Logger and the entries derived from it via WithField satisfy it.
type Logger interface {
	logrus.FieldLogger
}

func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}
