package broker

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type infoLogger struct {
	l *logrus.Entry
}

func (l *infoLogger) Printf(format string, v ...any) {
	l.l.Debug(fmt.Sprintf(format, v...))
}

type errorLogger struct {
	l *logrus.Entry
}

func (l *errorLogger) Printf(format string, v ...any) {
	l.l.Error(fmt.Sprintf(format, v...))
}
