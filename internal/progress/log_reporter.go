package progress

import "github.com/sirupsen/logrus"

// LogReporter writes "compressed 3/10: path" at info level, or a warning for failures.
func LogReporter(logger logrus.FieldLogger) Reporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return ReporterFunc(func(e Event) {
		entry := logger.WithFields(logrus.Fields{"stage": "execute", "path": e.Path, "status": e.Status})
		if e.Status == "failed" {
			entry.Warnf("compression failed %d/%d: %s", e.Done, e.Total, e.Path)
			return
		}
		entry.Infof("compressed %d/%d: %s", e.Done, e.Total, e.Path)
	})
}
